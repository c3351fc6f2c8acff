package notify

import (
	"context"

	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/models"
)

// Notifier delivers user-facing notifications. Delivery is best effort:
// implementations must never fail the operation that triggered them.
type Notifier interface {
	DonationDecided(ctx context.Context, donation models.Donation)
	BenefitClaimed(ctx context.Context, claim models.Claim)
}

// LogNotifier writes notifications to the log. Stands in for the mail
// dispatcher in environments without one configured.
type LogNotifier struct {
	Logger logger.Logger
}

func (n LogNotifier) DonationDecided(_ context.Context, donation models.Donation) {
	n.Logger.Info("donation decided",
		"donation_id", donation.ID,
		"user_id", donation.UserID,
		"status", donation.Status,
	)
}

func (n LogNotifier) BenefitClaimed(_ context.Context, claim models.Claim) {
	n.Logger.Info("benefit claimed",
		"claim_id", claim.ID,
		"user_id", claim.UserID,
		"benefit_id", claim.BenefitID,
		"claimed", claim.Claimed,
	)
}

// NopNotifier discards everything. Handy in tests.
type NopNotifier struct{}

func (NopNotifier) DonationDecided(context.Context, models.Donation) {}
func (NopNotifier) BenefitClaimed(context.Context, models.Claim)     {}
