package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/models"
)

// Storage aggregates all repositories over a single connection or
// transaction. InTx runs fn against a Storage bound to one database
// transaction: everything fn does commits or rolls back as a unit.
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Campaign() CampaignRepo
	Donation() DonationRepo
	Points() PointsRepo
	Ranking() RankingRepo
	Benefit() BenefitRepo
	Claim() ClaimRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}

type CreateUserParams struct {
	Login          string
	Name           string
	Surname        string
	HashedPassword string
}

type UserRepo interface {
	// Create user
	// If user with the login exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or login
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
}

type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token even if it is expired or used already
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token as used exactly once
	// If the token is already used must return apperrors.ErrRefreshTokenIsUsed
	// and keep the original usedAt
	MarkUsed(ctx context.Context, tokenString string) (usedAt time.Time, err error)
}

type CreateCampaignParams struct {
	OrganizationID uuid.UUID
	Title          string
	PointRate      int64
	EndsAt         time.Time
}

type CampaignRepo interface {
	CreateCampaign(ctx context.Context, arg CreateCampaignParams) (models.Campaign, error)

	// If campaign not found must return apperrors.ErrCampaignNotFound
	GetCampaign(ctx context.Context, id uuid.UUID) (models.Campaign, error)

	// Campaigns whose end date is still in the future, newest first
	ListActive(ctx context.Context, now time.Time) ([]models.Campaign, error)
}

type DonationRepo interface {
	CreateDonation(ctx context.Context, donation models.Donation) (models.Donation, error)

	// If donation not found must return apperrors.ErrDonationNotFound
	GetDonation(ctx context.Context, id uuid.UUID) (models.Donation, error)

	// Same as GetDonation but locks the row for the rest of the
	// transaction. Use inside InTx only.
	GetDonationForUpdate(ctx context.Context, id uuid.UUID) (models.Donation, error)

	// Overwrite status, reject reason and decision timestamp
	SetStatus(ctx context.Context, id uuid.UUID, status string, reason *string, decidedAt *time.Time) (models.Donation, error)

	// Newest first, with total count for pagination
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]models.Donation, int64, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, page Page) ([]models.Donation, int64, error)
}

// Page is a 1-based pagination request
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

type PointsRepo interface {
	// Add amount to the user balance, creating the account lazily.
	// Amount must not be negative.
	Credit(ctx context.Context, userID uuid.UUID, amount int64) (models.PointsAccount, error)

	// Subtract amount from the user balance. The balance check and the
	// update are one atomic statement; if the balance would go negative
	// must return apperrors.ErrBalanceInsufficient and change nothing.
	Debit(ctx context.Context, userID uuid.UUID, amount int64) (models.PointsAccount, error)

	// Balance of a user. An account that was never touched reads as zero.
	GetBalance(ctx context.Context, userID uuid.UUID) (models.PointsAccount, error)

	AddEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error)

	// Newest first
	ListEntries(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error)
}

type RankingRepo interface {
	// Add delta to the user total, creating the row lazily. A delta that
	// would drive the total negative must return apperrors.ErrRankingNegative.
	Adjust(ctx context.Context, userID uuid.UUID, delta int64) (models.RankingEntry, error)

	// Highest totals first, ties broken by lowest user id
	Top(ctx context.Context, n int) ([]models.RankingEntry, error)
}

type CreateBenefitParams struct {
	CompanyID uuid.UUID
	Title     string
	Kind      string
	Detail    string
	Stock     int64
	PointCost int64
}

type BenefitRepo interface {
	CreateBenefit(ctx context.Context, arg CreateBenefitParams) (models.Benefit, error)

	// If benefit not found must return apperrors.ErrBenefitNotFound
	GetBenefit(ctx context.Context, id uuid.UUID) (models.Benefit, error)

	SetStatus(ctx context.Context, id uuid.UUID, status string) (models.Benefit, error)

	// Approved benefits with stock left, newest first
	ListAvailable(ctx context.Context) ([]models.Benefit, error)

	// Subtract qty from stock in one atomic statement. If less than qty
	// is left must return apperrors.ErrNoStockLeft and change nothing.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error
}

type ClaimRepo interface {
	// Create the user's claim row for the benefit or increase the claimed
	// counter if one exists already
	Upsert(ctx context.Context, userID uuid.UUID, benefitID uuid.UUID, qty int64) (models.Claim, error)

	// If claim not found must return apperrors.ErrClaimNotFound
	GetClaim(ctx context.Context, id uuid.UUID) (models.Claim, error)

	// Consume one unit. When the last unit is consumed flips status to
	// USED and stamps usedAt. If nothing is left to consume must return
	// apperrors.ErrNoStockLeft.
	Use(ctx context.Context, id uuid.UUID, now time.Time) (models.Claim, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Claim, error)
}
