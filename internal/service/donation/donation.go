package donation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/notify"
	"github.com/scastellanos/solidapp/internal/repository"
)

// ReopenWindow is how long a rejected donation may still be approved.
// The boundary is exclusive: at exactly 48h the rejection is final.
const ReopenWindow = 48 * time.Hour

const (
	defaultPageSize = 20
	maxPageSize     = 100
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

type SubmitParams struct {
	CampaignID uuid.UUID
	Quantity   int64
	Detail     string
	Article    string
}

// Submit creates a pending donation against an active campaign. The
// campaign's current point rate is copied into the donation so later
// campaign edits never change the payout.
func (s *Service) Submit(ctx context.Context, user *models.User, arg SubmitParams) (models.Donation, error) {
	var donation models.Donation

	if arg.Quantity <= 0 {
		return donation, apperrors.ErrQuantityInvalid
	}

	campaign, err := s.storage.Campaign().GetCampaign(ctx, arg.CampaignID)
	if err != nil {
		return donation, err
	}

	now := s.now().Truncate(time.Second)
	if campaign.Ended(now) {
		return donation, apperrors.ErrCampaignEnded
	}

	return s.storage.Donation().CreateDonation(ctx, models.Donation{
		ID:           uuid.New(),
		CampaignID:   campaign.ID,
		UserID:       user.ID,
		Detail:       arg.Detail,
		Article:      arg.Article,
		Quantity:     arg.Quantity,
		PointRate:    campaign.PointRate,
		Status:       models.DonationPending,
		RegisteredAt: now,
	})
}

// Decide applies an approve or reject decision to a donation.
//
// An approval updates the donation, credits the donor's balance, writes
// the ledger entry and bumps the ranking inside one transaction: either
// everything commits or nothing does. On a transient transaction
// conflict the whole unit runs once more before giving up.
func (s *Service) Decide(ctx context.Context, donationID uuid.UUID, decision string, reason string) (models.Donation, error) {
	var donation models.Donation

	reason = strings.TrimSpace(reason)

	switch decision {
	case models.DecisionApprove, models.DecisionReject:
	default:
		return donation, fmt.Errorf("%w: unknown decision %q", apperrors.ErrInvalidTransition, decision)
	}

	if decision == models.DecisionReject && reason == "" {
		return donation, apperrors.ErrRejectReasonRequired
	}

	var changed bool
	run := func() error {
		return s.storage.InTx(ctx, func(store repository.Storage) error {
			var err error
			donation, changed, err = s.decideTx(ctx, store, donationID, decision, reason)
			return err
		})
	}

	err := run()
	if repository.IsRetryable(err) {
		s.logger.Warn("decision hit a tx conflict, retrying", "donation_id", donationID)
		err = run()
		if repository.IsRetryable(err) {
			err = fmt.Errorf("%w: %s", apperrors.ErrConsistency, err)
		}
	}
	if err != nil {
		return donation, err
	}

	if changed {
		// Best effort, a failed notification never fails the decision
		s.notifier.DonationDecided(ctx, donation)
	}

	return donation, nil
}

// decideTx holds the state machine. Runs with the donation row locked.
func (s *Service) decideTx(ctx context.Context, store repository.Storage, donationID uuid.UUID, decision string, reason string) (models.Donation, bool, error) {
	d, err := store.Donation().GetDonationForUpdate(ctx, donationID)
	if err != nil {
		return d, false, err
	}

	now := s.now().Truncate(time.Second)

	switch {
	case d.Status == models.DonationApproved && decision == models.DecisionApprove:
		// Approved is terminal and approval idempotent: the second call
		// is a no-op that returns the stored view, no double credit
		return d, false, nil
	case d.Status == models.DonationApproved:
		return d, false, apperrors.ErrInvalidTransition
	case d.Status == models.DonationRejected && decision == models.DecisionReject:
		return d, false, apperrors.ErrInvalidTransition
	case d.Status == models.DonationRejected:
		if d.DecidedAt != nil && now.Sub(*d.DecidedAt) >= ReopenWindow {
			return d, false, apperrors.ErrReopenWindowExpired
		}
	}

	if decision == models.DecisionReject {
		d, err = store.Donation().SetStatus(ctx, donationID, models.DonationRejected, &reason, &now)
		return d, err == nil, err
	}

	if d.Quantity <= 0 {
		return d, false, apperrors.ErrQuantityInvalid
	}

	d, err = store.Donation().SetStatus(ctx, donationID, models.DonationApproved, nil, &now)
	if err != nil {
		return d, false, err
	}

	points := d.Points()

	if _, err := store.Points().Credit(ctx, d.UserID, points); err != nil {
		return d, false, fmt.Errorf("crediting donor: %w", err)
	}

	_, err = store.Points().AddEntry(ctx, models.LedgerEntry{
		ID:          uuid.New(),
		UserID:      d.UserID,
		Amount:      points,
		Direction:   models.LedgerDirectionCredit,
		Source:      models.LedgerSourceDonation,
		SourceID:    d.ID,
		ProcessedAt: now,
	})
	if err != nil {
		return d, false, fmt.Errorf("recording ledger entry: %w", err)
	}

	if _, err := store.Ranking().Adjust(ctx, d.UserID, points); err != nil {
		return d, false, fmt.Errorf("adjusting ranking: %w", err)
	}

	return d, true, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]models.Donation, int64, error) {
	return s.storage.Donation().ListByUser(ctx, userID, normalizePage(page))
}

func (s *Service) ListByCampaign(ctx context.Context, campaignID uuid.UUID, page repository.Page) ([]models.Donation, int64, error) {
	return s.storage.Donation().ListByCampaign(ctx, campaignID, normalizePage(page))
}

func normalizePage(page repository.Page) repository.Page {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	return page
}
