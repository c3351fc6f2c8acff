package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/scastellanos/solidapp/internal/handlers/render"
	"github.com/scastellanos/solidapp/internal/handlers/userctx"
	"github.com/scastellanos/solidapp/internal/models"
)

type authService interface {
	UserFromToken(ctx context.Context, accessToken string) (models.User, error)
}

// AuthMiddleware resolves the bearer token into a user and stores it in
// the request context. Requests without a valid token get 401.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.UserFromToken(r.Context(), token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
