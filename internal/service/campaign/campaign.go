package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
)

// Minimal campaign surface: enough for organizations to open a campaign
// and for the donation workflow to resolve one.
type Service struct {
	storage repository.Storage

	now func() time.Time
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage, now: time.Now}
}

type CreateParams struct {
	Title     string
	PointRate int64
	EndsAt    time.Time
}

func (s *Service) Create(ctx context.Context, organization *models.User, arg CreateParams) (models.Campaign, error) {
	var campaign models.Campaign

	if arg.PointRate <= 0 {
		return campaign, apperrors.ErrQuantityInvalid
	}
	if arg.EndsAt.Before(s.now()) {
		return campaign, apperrors.ErrCampaignEnded
	}

	return s.storage.Campaign().CreateCampaign(ctx, repository.CreateCampaignParams{
		OrganizationID: organization.ID,
		Title:          arg.Title,
		PointRate:      arg.PointRate,
		EndsAt:         arg.EndsAt.Truncate(time.Second),
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Campaign, error) {
	return s.storage.Campaign().GetCampaign(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]models.Campaign, error) {
	return s.storage.Campaign().ListActive(ctx, s.now())
}
