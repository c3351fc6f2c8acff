package points

import (
	"context"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
)

const (
	defaultTopSize = 10
	maxTopSize     = 100
)

// Read side of the points ledger and the ranking. All mutations go
// through the donation and benefit workflows.
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (models.PointsAccount, error) {
	return s.storage.Points().GetBalance(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	return s.storage.Points().ListEntries(ctx, userID)
}

func (s *Service) TopRanking(ctx context.Context, n int) ([]models.RankingEntry, error) {
	if n < 1 {
		n = defaultTopSize
	}
	if n > maxTopSize {
		n = maxTopSize
	}
	return s.storage.Ranking().Top(ctx, n)
}
