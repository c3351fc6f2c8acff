package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is consumed by the donation workflow as a reference only:
// the end date closes submissions and PointRate is snapshotted into
// every donation at creation time.
type Campaign struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	PointRate      int64
	EndsAt         time.Time
	CreatedAt      time.Time
}

func (c Campaign) Ended(now time.Time) bool {
	return c.EndsAt.Before(now)
}
