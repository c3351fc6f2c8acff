package postgres

import (
	"context"
	"fmt"

	"github.com/scastellanos/solidapp/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{DB: s.db}
}

func (s *Storage) Campaign() repository.CampaignRepo {
	return &CampaignRepo{DB: s.db}
}

func (s *Storage) Donation() repository.DonationRepo {
	return &DonationRepo{DB: s.db}
}

func (s *Storage) Points() repository.PointsRepo {
	return &PointsRepo{DB: s.db}
}

func (s *Storage) Ranking() repository.RankingRepo {
	return &RankingRepo{DB: s.db}
}

func (s *Storage) Benefit() repository.BenefitRepo {
	return &BenefitRepo{DB: s.db}
}

func (s *Storage) Claim() repository.ClaimRepo {
	return &ClaimRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
