package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DonationPending  = "PENDING"
	DonationApproved = "APPROVED"
	DonationRejected = "REJECTED"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type Donation struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	UserID     uuid.UUID
	Detail     string
	Article    string
	Quantity   int64

	// Points per unit copied from the campaign when the donation was
	// created. Later campaign edits must not change the payout.
	PointRate int64

	Status       string
	RejectReason *string
	RegisteredAt time.Time
	DecidedAt    *time.Time // nil while pending
}

// Points awarded when the donation gets approved
func (d Donation) Points() int64 {
	return d.Quantity * d.PointRate
}
