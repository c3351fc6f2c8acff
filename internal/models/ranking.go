package models

import (
	"github.com/google/uuid"
)

// RankingEntry is the lifetime donation score of a user. It only grows
// with approved donations, benefit redemptions do not reduce it.
type RankingEntry struct {
	UserID  uuid.UUID
	Points  int64
	Name    string
	Surname string
}
