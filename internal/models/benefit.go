package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BenefitPending  = "PENDING"
	BenefitApproved = "APPROVED"
	BenefitRejected = "REJECTED"
)

const (
	ClaimActive = "ACTIVE"
	ClaimUsed   = "USED"
)

type Benefit struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Title     string
	Kind      string
	Detail    string
	Stock     int64
	PointCost int64
	Status    string
	CreatedAt time.Time
}

// Claim tracks how many units of a benefit a user redeemed and how many
// of them were already consumed. Used never exceeds Claimed.
type Claim struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	BenefitID uuid.UUID
	Claimed   int64
	Used      int64
	Status    string
	ClaimedAt time.Time
	UsedAt    *time.Time
}
