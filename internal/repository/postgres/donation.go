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
	"github.com/scastellanos/solidapp/internal/repository"
)

type DonationRepo struct {
	DB DBTX
}

const donationColumns = `id, campaign_id, user_id, detail, article, quantity, point_rate, status, reject_reason, registered_at, decided_at`

const createDonation = `-- name: CreateDonation
INSERT INTO donations (id, campaign_id, user_id, detail, article, quantity, point_rate, status, reject_reason, registered_at, decided_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + donationColumns

func (r *DonationRepo) CreateDonation(ctx context.Context, d models.Donation) (models.Donation, error) {
	rows, _ := r.DB.Query(ctx, createDonation,
		d.ID, d.CampaignID, d.UserID, d.Detail, d.Article, d.Quantity, d.PointRate,
		d.Status, d.RejectReason, d.RegisteredAt, d.DecidedAt,
	)
	donation, err := pgx.CollectOneRow(rows, rowToDonation)
	if err != nil {
		return donation, fmt.Errorf("db error: %w", err)
	}
	return donation, nil
}

const getDonation = `-- name: GetDonation
SELECT ` + donationColumns + ` FROM donations
WHERE id = $1
`

func (r *DonationRepo) GetDonation(ctx context.Context, id uuid.UUID) (models.Donation, error) {
	rows, _ := r.DB.Query(ctx, getDonation, id)
	return collectDonation(rows)
}

// Same query but the row stays locked until the surrounding transaction
// ends. Serializes concurrent decisions on the same donation.
const getDonationForUpdate = getDonation + `FOR UPDATE
`

func (r *DonationRepo) GetDonationForUpdate(ctx context.Context, id uuid.UUID) (models.Donation, error) {
	rows, _ := r.DB.Query(ctx, getDonationForUpdate, id)
	return collectDonation(rows)
}

const setDonationStatus = `-- name: SetDonationStatus
UPDATE donations
SET status = $2, reject_reason = $3, decided_at = $4
WHERE id = $1
RETURNING ` + donationColumns

func (r *DonationRepo) SetStatus(ctx context.Context, id uuid.UUID, status string, reason *string, decidedAt *time.Time) (models.Donation, error) {
	rows, _ := r.DB.Query(ctx, setDonationStatus, id, status, reason, decidedAt)
	return collectDonation(rows)
}

const listDonationsByUser = `-- name: ListDonationsByUser
SELECT ` + donationColumns + `, COUNT(*) OVER () AS total FROM donations
WHERE user_id = $1
ORDER BY registered_at DESC, id
LIMIT $2 OFFSET $3
`

func (r *DonationRepo) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) ([]models.Donation, int64, error) {
	rows, _ := r.DB.Query(ctx, listDonationsByUser, userID, page.Size, page.Offset())
	return collectDonationPage(rows)
}

const listDonationsByCampaign = `-- name: ListDonationsByCampaign
SELECT ` + donationColumns + `, COUNT(*) OVER () AS total FROM donations
WHERE campaign_id = $1
ORDER BY registered_at DESC, id
LIMIT $2 OFFSET $3
`

func (r *DonationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, page repository.Page) ([]models.Donation, int64, error) {
	rows, _ := r.DB.Query(ctx, listDonationsByCampaign, campaignID, page.Size, page.Offset())
	return collectDonationPage(rows)
}

func collectDonation(rows pgx.Rows) (models.Donation, error) {
	donation, err := pgx.CollectOneRow(rows, rowToDonation)

	switch {
	case err == nil:
		return donation, nil
	case errors.Is(err, pgx.ErrNoRows):
		return donation, apperrors.ErrDonationNotFound
	default:
		return donation, fmt.Errorf("db error: %w", err)
	}
}

func collectDonationPage(rows pgx.Rows) ([]models.Donation, int64, error) {
	var total int64

	donations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Donation, error) {
		var d models.Donation
		err := row.Scan(
			&d.ID, &d.CampaignID, &d.UserID, &d.Detail, &d.Article, &d.Quantity,
			&d.PointRate, &d.Status, &d.RejectReason, &d.RegisteredAt, &d.DecidedAt,
			&total,
		)
		return d, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return donations, total, nil
}

func rowToDonation(row pgx.CollectableRow) (models.Donation, error) {
	var d models.Donation
	err := row.Scan(
		&d.ID, &d.CampaignID, &d.UserID, &d.Detail, &d.Article, &d.Quantity,
		&d.PointRate, &d.Status, &d.RejectReason, &d.RegisteredAt, &d.DecidedAt,
	)
	return d, err
}
