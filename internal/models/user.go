package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Login          string
	Name           string
	Surname        string
	HashedPassword string
	Disabled       bool
}
