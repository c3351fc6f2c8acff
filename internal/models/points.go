package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LedgerDirectionCredit = "credit"
	LedgerDirectionDebit  = "debit"
)

const (
	LedgerSourceDonation = "donation"
	LedgerSourceBenefit  = "benefit"
)

// PointsAccount holds the spendable balance of a single user.
// Balance never goes below zero; the check happens at debit time.
type PointsAccount struct {
	UserID  uuid.UUID
	Balance int64
}

// LedgerEntry records a single balance mutation for audit purposes
type LedgerEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	Direction   string
	Source      string
	SourceID    uuid.UUID
	ProcessedAt time.Time
}
