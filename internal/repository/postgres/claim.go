package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
)

type ClaimRepo struct {
	DB DBTX
}

const claimColumns = `id, user_id, benefit_id, claimed, used, status, claimed_at, used_at`

// One row per user and benefit: a repeated claim bumps the claimed
// counter and reactivates the row.
const upsertClaim = `-- name: UpsertClaim
INSERT INTO claims (user_id, benefit_id, claimed, claimed_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, benefit_id) DO UPDATE
SET claimed = claims.claimed + EXCLUDED.claimed, status = 'ACTIVE'
RETURNING ` + claimColumns

func (r *ClaimRepo) Upsert(ctx context.Context, userID uuid.UUID, benefitID uuid.UUID, qty int64) (models.Claim, error) {
	now := time.Now().Truncate(time.Second)
	rows, _ := r.DB.Query(ctx, upsertClaim, userID, benefitID, qty, now)
	claim, err := pgx.CollectOneRow(rows, rowToClaim)
	if err != nil {
		return claim, fmt.Errorf("db error: %w", err)
	}
	return claim, nil
}

const getClaim = `-- name: GetClaim
SELECT ` + claimColumns + ` FROM claims
WHERE id = $1
`

func (r *ClaimRepo) GetClaim(ctx context.Context, id uuid.UUID) (models.Claim, error) {
	rows, _ := r.DB.Query(ctx, getClaim, id)
	return collectClaim(rows)
}

// Consumes a unit only while something is left; the last unit flips the
// row to USED and stamps the use time.
const useClaim = `-- name: UseClaim
UPDATE claims
SET used = used + 1,
    status = CASE WHEN used + 1 >= claimed THEN 'USED' ELSE status END,
    used_at = CASE WHEN used + 1 >= claimed THEN $2 ELSE used_at END
WHERE id = $1 AND used < claimed
RETURNING ` + claimColumns

func (r *ClaimRepo) Use(ctx context.Context, id uuid.UUID, now time.Time) (models.Claim, error) {
	rows, _ := r.DB.Query(ctx, useClaim, id, now)
	claim, err := pgx.CollectOneRow(rows, rowToClaim)

	switch {
	case err == nil:
		return claim, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either no such claim or everything claimed was used already
		claim, err := r.GetClaim(ctx, id)
		if err != nil {
			return claim, err
		}
		return claim, apperrors.ErrNoStockLeft
	default:
		return claim, fmt.Errorf("db error: %w", err)
	}
}

const listClaimsByUser = `-- name: ListClaimsByUser
SELECT ` + claimColumns + ` FROM claims
WHERE user_id = $1
ORDER BY claimed_at DESC, id
`

func (r *ClaimRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Claim, error) {
	rows, _ := r.DB.Query(ctx, listClaimsByUser, userID)
	claims, err := pgx.CollectRows(rows, rowToClaim)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return claims, nil
}

func collectClaim(rows pgx.Rows) (models.Claim, error) {
	claim, err := pgx.CollectOneRow(rows, rowToClaim)

	switch {
	case err == nil:
		return claim, nil
	case errors.Is(err, pgx.ErrNoRows):
		return claim, apperrors.ErrClaimNotFound
	default:
		return claim, fmt.Errorf("db error: %w", err)
	}
}

func rowToClaim(row pgx.CollectableRow) (models.Claim, error) {
	var c models.Claim
	err := row.Scan(&c.ID, &c.UserID, &c.BenefitID, &c.Claimed, &c.Used, &c.Status, &c.ClaimedAt, &c.UsedAt)
	return c, err
}
