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

type CampaignRepo struct {
	DB DBTX
}

const createCampaign = `-- name: CreateCampaign
INSERT INTO campaigns (organization_id, title, point_rate, ends_at)
VALUES ($1, $2, $3, $4)
RETURNING id, organization_id, title, point_rate, ends_at, created_at
`

func (r *CampaignRepo) CreateCampaign(ctx context.Context, arg repository.CreateCampaignParams) (models.Campaign, error) {
	rows, _ := r.DB.Query(ctx, createCampaign, arg.OrganizationID, arg.Title, arg.PointRate, arg.EndsAt)
	campaign, err := pgx.CollectOneRow(rows, rowToCampaign)
	if err != nil {
		return campaign, fmt.Errorf("db error: %w", err)
	}
	return campaign, nil
}

const getCampaign = `-- name: GetCampaign
SELECT id, organization_id, title, point_rate, ends_at, created_at FROM campaigns
WHERE id = $1
`

func (r *CampaignRepo) GetCampaign(ctx context.Context, id uuid.UUID) (models.Campaign, error) {
	rows, _ := r.DB.Query(ctx, getCampaign, id)
	campaign, err := pgx.CollectOneRow(rows, rowToCampaign)

	switch {
	case err == nil:
		return campaign, nil
	case errors.Is(err, pgx.ErrNoRows):
		return campaign, apperrors.ErrCampaignNotFound
	default:
		return campaign, fmt.Errorf("db error: %w", err)
	}
}

const listActiveCampaigns = `-- name: ListActiveCampaigns
SELECT id, organization_id, title, point_rate, ends_at, created_at FROM campaigns
WHERE ends_at >= $1
ORDER BY created_at DESC
`

func (r *CampaignRepo) ListActive(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	rows, _ := r.DB.Query(ctx, listActiveCampaigns, now)
	campaigns, err := pgx.CollectRows(rows, rowToCampaign)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return campaigns, nil
}

func rowToCampaign(row pgx.CollectableRow) (models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Title, &c.PointRate, &c.EndsAt, &c.CreatedAt)
	return c, err
}
