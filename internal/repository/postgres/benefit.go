package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
)

type BenefitRepo struct {
	DB DBTX
}

const benefitColumns = `id, company_id, title, kind, detail, stock, point_cost, status, created_at`

const createBenefit = `-- name: CreateBenefit
INSERT INTO benefits (company_id, title, kind, detail, stock, point_cost)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + benefitColumns

func (r *BenefitRepo) CreateBenefit(ctx context.Context, arg repository.CreateBenefitParams) (models.Benefit, error) {
	rows, _ := r.DB.Query(ctx, createBenefit,
		arg.CompanyID, arg.Title, arg.Kind, arg.Detail, arg.Stock, arg.PointCost,
	)
	benefit, err := pgx.CollectOneRow(rows, rowToBenefit)
	if err != nil {
		return benefit, fmt.Errorf("db error: %w", err)
	}
	return benefit, nil
}

const getBenefit = `-- name: GetBenefit
SELECT ` + benefitColumns + ` FROM benefits
WHERE id = $1
`

func (r *BenefitRepo) GetBenefit(ctx context.Context, id uuid.UUID) (models.Benefit, error) {
	rows, _ := r.DB.Query(ctx, getBenefit, id)
	return collectBenefit(rows)
}

const setBenefitStatus = `-- name: SetBenefitStatus
UPDATE benefits
SET status = $2
WHERE id = $1
RETURNING ` + benefitColumns

func (r *BenefitRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) (models.Benefit, error) {
	rows, _ := r.DB.Query(ctx, setBenefitStatus, id, status)
	return collectBenefit(rows)
}

const listAvailableBenefits = `-- name: ListAvailableBenefits
SELECT ` + benefitColumns + ` FROM benefits
WHERE status = 'APPROVED' AND stock > 0
ORDER BY created_at DESC, id
`

func (r *BenefitRepo) ListAvailable(ctx context.Context) ([]models.Benefit, error) {
	rows, _ := r.DB.Query(ctx, listAvailableBenefits)
	benefits, err := pgx.CollectRows(rows, rowToBenefit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return benefits, nil
}

// Stock guard lives in the WHERE clause, same pattern as the balance
// debit: the statement matches only while enough stock is left.
const decrementStock = `-- name: DecrementBenefitStock
UPDATE benefits
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`

func (r *BenefitRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error {
	if qty < 0 {
		return fmt.Errorf("stock decrement must not be negative, got %d", qty)
	}

	tag, err := r.DB.Exec(ctx, decrementStock, id, qty)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the benefit does not exist or not enough stock is left
		if _, err := r.GetBenefit(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrNoStockLeft
	}

	return nil
}

func collectBenefit(rows pgx.Rows) (models.Benefit, error) {
	benefit, err := pgx.CollectOneRow(rows, rowToBenefit)

	switch {
	case err == nil:
		return benefit, nil
	case errors.Is(err, pgx.ErrNoRows):
		return benefit, apperrors.ErrBenefitNotFound
	default:
		return benefit, fmt.Errorf("db error: %w", err)
	}
}

func rowToBenefit(row pgx.CollectableRow) (models.Benefit, error) {
	var b models.Benefit
	err := row.Scan(&b.ID, &b.CompanyID, &b.Title, &b.Kind, &b.Detail, &b.Stock, &b.PointCost, &b.Status, &b.CreatedAt)
	return b, err
}
