package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
)

type RankingRepo struct {
	DB DBTX
}

// A missing row is created with max(delta, 0). An update that would go
// negative matches no row, which surfaces as ErrRankingNegative.
const adjustRanking = `-- name: AdjustRanking
INSERT INTO ranking (user_id, points)
VALUES ($1, GREATEST($2, 0))
ON CONFLICT (user_id) DO UPDATE
SET points = ranking.points + $2
WHERE ranking.points + $2 >= 0
RETURNING user_id, points
`

func (r *RankingRepo) Adjust(ctx context.Context, userID uuid.UUID, delta int64) (models.RankingEntry, error) {
	rows, _ := r.DB.Query(ctx, adjustRanking, userID, delta)
	entry, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RankingEntry, error) {
		var e models.RankingEntry
		err := row.Scan(&e.UserID, &e.Points)
		return e, err
	})

	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, pgx.ErrNoRows):
		return entry, apperrors.ErrRankingNegative
	default:
		return entry, fmt.Errorf("db error: %w", err)
	}
}

const topRanking = `-- name: TopRanking
SELECT r.user_id, r.points, u.name, u.surname
FROM ranking r
JOIN users u ON u.id = r.user_id
ORDER BY r.points DESC, r.user_id ASC
LIMIT $1
`

func (r *RankingRepo) Top(ctx context.Context, n int) ([]models.RankingEntry, error) {
	rows, _ := r.DB.Query(ctx, topRanking, n)
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RankingEntry, error) {
		var e models.RankingEntry
		err := row.Scan(&e.UserID, &e.Points, &e.Name, &e.Surname)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}
