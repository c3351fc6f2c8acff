package benefit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/notify"
	"github.com/scastellanos/solidapp/internal/repository"
)

type Service struct {
	storage  repository.Storage
	notifier notify.Notifier
	logger   logger.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewService(storage repository.Storage, notifier notify.Notifier, l logger.Logger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		logger:   l,
		now:      time.Now,
	}
}

type CreateParams struct {
	Title     string
	Kind      string
	Detail    string
	Stock     int64
	PointCost int64
}

// Create registers a company benefit. It starts pending and is not
// claimable until approved.
func (s *Service) Create(ctx context.Context, company *models.User, arg CreateParams) (models.Benefit, error) {
	var benefit models.Benefit

	if arg.Stock < 0 || arg.PointCost <= 0 {
		return benefit, apperrors.ErrQuantityInvalid
	}

	return s.storage.Benefit().CreateBenefit(ctx, repository.CreateBenefitParams{
		CompanyID: company.ID,
		Title:     arg.Title,
		Kind:      arg.Kind,
		Detail:    arg.Detail,
		Stock:     arg.Stock,
		PointCost: arg.PointCost,
	})
}

func (s *Service) Approve(ctx context.Context, benefitID uuid.UUID) (models.Benefit, error) {
	return s.storage.Benefit().SetStatus(ctx, benefitID, models.BenefitApproved)
}

func (s *Service) ListAvailable(ctx context.Context) ([]models.Benefit, error) {
	return s.storage.Benefit().ListAvailable(ctx)
}

// Claim redeems qty units of a benefit. The stock decrement, the
// balance debit, the ledger entry and the claim row all commit in one
// transaction: a debit never sticks while the stock decrement fails, or
// the other way round.
func (s *Service) Claim(ctx context.Context, user *models.User, benefitID uuid.UUID, qty int64) (models.Claim, error) {
	var claim models.Claim

	if qty <= 0 {
		return claim, apperrors.ErrQuantityInvalid
	}

	run := func() error {
		return s.storage.InTx(ctx, func(store repository.Storage) error {
			var err error
			claim, err = s.claimTx(ctx, store, user.ID, benefitID, qty)
			return err
		})
	}

	err := run()
	if repository.IsRetryable(err) {
		s.logger.Warn("claim hit a tx conflict, retrying", "benefit_id", benefitID)
		err = run()
		if repository.IsRetryable(err) {
			err = fmt.Errorf("%w: %s", apperrors.ErrConsistency, err)
		}
	}
	if err != nil {
		return claim, err
	}

	s.notifier.BenefitClaimed(ctx, claim)

	return claim, nil
}

func (s *Service) claimTx(ctx context.Context, store repository.Storage, userID uuid.UUID, benefitID uuid.UUID, qty int64) (models.Claim, error) {
	var claim models.Claim

	benefit, err := store.Benefit().GetBenefit(ctx, benefitID)
	if err != nil {
		return claim, err
	}

	if benefit.Status != models.BenefitApproved {
		return claim, apperrors.ErrBenefitNotFound
	}

	// Stock first: cheaper to fail before touching the balance, and the
	// rollback covers any order anyway
	if err := store.Benefit().DecrementStock(ctx, benefitID, qty); err != nil {
		return claim, err
	}

	cost := qty * benefit.PointCost

	if _, err := store.Points().Debit(ctx, userID, cost); err != nil {
		return claim, err
	}

	now := s.now().Truncate(time.Second)
	_, err = store.Points().AddEntry(ctx, models.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      cost,
		Direction:   models.LedgerDirectionDebit,
		Source:      models.LedgerSourceBenefit,
		SourceID:    benefitID,
		ProcessedAt: now,
	})
	if err != nil {
		return claim, fmt.Errorf("recording ledger entry: %w", err)
	}

	return store.Claim().Upsert(ctx, userID, benefitID, qty)
}

// Use consumes one unit of the caller's claim
func (s *Service) Use(ctx context.Context, user *models.User, claimID uuid.UUID) (models.Claim, error) {
	claim, err := s.storage.Claim().GetClaim(ctx, claimID)
	if err != nil {
		return claim, err
	}

	// Claims of other users stay invisible
	if claim.UserID != user.ID {
		return models.Claim{}, apperrors.ErrClaimNotFound
	}

	return s.storage.Claim().Use(ctx, claimID, s.now().Truncate(time.Second))
}

func (s *Service) ListClaims(ctx context.Context, userID uuid.UUID) ([]models.Claim, error) {
	return s.storage.Claim().ListByUser(ctx, userID)
}
