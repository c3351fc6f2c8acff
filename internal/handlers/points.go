package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/scastellanos/solidapp/internal/handlers/render"
	"github.com/scastellanos/solidapp/internal/handlers/userctx"
	"github.com/scastellanos/solidapp/internal/logger"
)

func handleBalance(pointsService pointsService, l logger.Logger) http.Handler {
	type response struct {
		Balance int64 `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		account, err := pointsService.GetBalance(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Balance: account.Balance})
	})
}

func handlePointsHistory(pointsService pointsService, l logger.Logger) http.Handler {
	type entry struct {
		Amount      int64     `json:"amount"`
		Direction   string    `json:"direction"`
		Source      string    `json:"source"`
		SourceID    string    `json:"source_id"`
		ProcessedAt time.Time `json:"processed_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		history, err := pointsService.History(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get points history", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		entries := make([]entry, 0, len(history))
		for _, e := range history {
			entries = append(entries, entry{
				Amount:      e.Amount,
				Direction:   e.Direction,
				Source:      e.Source,
				SourceID:    e.SourceID.String(),
				ProcessedAt: e.ProcessedAt,
			})
		}
		render.JSON(w, entries)
	})
}

func handleRanking(pointsService pointsService, l logger.Logger) http.Handler {
	type entry struct {
		UserID  string `json:"user_id"`
		Points  int64  `json:"points"`
		Name    string `json:"name"`
		Surname string `json:"surname"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))

		top, err := pointsService.TopRanking(r.Context(), n)
		if err != nil {
			l.Error("Failed to get ranking", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		entries := make([]entry, 0, len(top))
		for _, e := range top {
			entries = append(entries, entry{
				UserID:  e.UserID.String(),
				Points:  e.Points,
				Name:    e.Name,
				Surname: e.Surname,
			})
		}
		render.JSON(w, entries)
	})
}
