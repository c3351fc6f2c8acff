package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/scastellanos/solidapp/internal/handlers/middleware"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
	"github.com/scastellanos/solidapp/internal/service/auth"
	"github.com/scastellanos/solidapp/internal/service/benefit"
	"github.com/scastellanos/solidapp/internal/service/campaign"
	"github.com/scastellanos/solidapp/internal/service/donation"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	campaignService campaignService,
	donationService donationService,
	pointsService pointsService,
	benefitService benefitService,
	l logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	// Mutating endpoints share one per-client limiter
	limit := middleware.RateLimitMiddleware(rate.Limit(10), 20)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", limit(handleRegister(authService, l)))
	api.Handle("POST /auth/login", limit(handleLogin(authService, l)))
	api.Handle("POST /auth/refresh", limit(handleTokenRefresh(authService, l)))

	api.Handle("POST /campaigns", limit(withAuth(handleCreateCampaign(campaignService, l))))
	api.Handle("GET /campaigns", handleListCampaigns(campaignService, l))
	api.Handle("GET /campaigns/{id}/donations", withAuth(handleListCampaignDonations(donationService, l)))

	api.Handle("POST /donations", limit(withAuth(handleSubmitDonation(donationService, l))))
	api.Handle("POST /donations/{id}/decide", limit(withAuth(handleDecideDonation(donationService, l))))
	api.Handle("GET /donations", withAuth(handleListMyDonations(donationService, l)))

	api.Handle("GET /points/balance", withAuth(handleBalance(pointsService, l)))
	api.Handle("GET /points/history", withAuth(handlePointsHistory(pointsService, l)))
	api.Handle("GET /ranking", handleRanking(pointsService, l))

	api.Handle("POST /benefits", limit(withAuth(handleCreateBenefit(benefitService, l))))
	api.Handle("POST /benefits/{id}/approve", limit(withAuth(handleApproveBenefit(benefitService, l))))
	api.Handle("GET /benefits", handleListBenefits(benefitService, l))
	api.Handle("GET /benefits/claims", withAuth(handleListClaims(benefitService, l)))
	api.Handle("POST /benefits/{id}/claim", limit(withAuth(handleClaimBenefit(benefitService, l))))
	api.Handle("POST /claims/{id}/use", limit(withAuth(handleUseClaim(benefitService, l))))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("GET /metrics", promhttp.Handler())

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}

type authService interface {
	// Register user, has to return apperrors.ErrUserAlreadyExists on duplicate login
	Register(ctx context.Context, arg auth.RegisterParams) (models.TokenPair, error)

	// Login user, has to return apperrors.ErrUserNotFound on bad credentials
	Login(ctx context.Context, login string, password string) (models.TokenPair, error)

	// Exchange a one-time refresh token for a fresh pair
	Refresh(ctx context.Context, refreshString string) (models.TokenPair, error)

	// Resolve access token into a live user (used by auth middleware)
	UserFromToken(ctx context.Context, accessToken string) (models.User, error)
}

type campaignService interface {
	Create(ctx context.Context, organization *models.User, arg campaign.CreateParams) (models.Campaign, error)
	ListActive(ctx context.Context) ([]models.Campaign, error)
}

type donationService interface {
	Submit(ctx context.Context, user *models.User, arg donation.SubmitParams) (models.Donation, error)
	Decide(ctx context.Context, donationID uuid.UUID, decision string, reason string) (models.Donation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]models.Donation, int64, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, page repository.Page) ([]models.Donation, int64, error)
}

type pointsService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (models.PointsAccount, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error)
	TopRanking(ctx context.Context, n int) ([]models.RankingEntry, error)
}

type benefitService interface {
	Create(ctx context.Context, company *models.User, arg benefit.CreateParams) (models.Benefit, error)
	Approve(ctx context.Context, benefitID uuid.UUID) (models.Benefit, error)
	ListAvailable(ctx context.Context) ([]models.Benefit, error)
	Claim(ctx context.Context, user *models.User, benefitID uuid.UUID, qty int64) (models.Claim, error)
	Use(ctx context.Context, user *models.User, claimID uuid.UUID) (models.Claim, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]models.Claim, error)
}
