package handlers

import (
	"net/http"
	"time"

	"github.com/scastellanos/solidapp/internal/handlers/render"
	"github.com/scastellanos/solidapp/internal/handlers/userctx"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/service/campaign"
)

type campaignResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	PointRate int64     `json:"point_rate"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

func toCampaignResponse(c models.Campaign) campaignResponse {
	return campaignResponse{
		ID:        c.ID.String(),
		Title:     c.Title,
		PointRate: c.PointRate,
		EndsAt:    c.EndsAt,
		CreatedAt: c.CreatedAt,
	}
}

func handleCreateCampaign(campaignService campaignService, l logger.Logger) http.Handler {
	type request struct {
		Title     string    `json:"title" validate:"required"`
		PointRate int64     `json:"point_rate" validate:"required,gt=0"`
		EndsAt    time.Time `json:"ends_at" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := campaignService.Create(r.Context(), &user, campaign.CreateParams{
			Title:     req.Title,
			PointRate: req.PointRate,
			EndsAt:    req.EndsAt,
		})

		switch err {
		case nil:
			render.JSONWithStatus(w, toCampaignResponse(created), http.StatusCreated)
		default:
			l.Error("Failed to create campaign", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListCampaigns(campaignService campaignService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		campaigns, err := campaignService.ListActive(r.Context())
		if err != nil {
			l.Error("Failed to list campaigns", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]campaignResponse, 0, len(campaigns))
		for _, c := range campaigns {
			items = append(items, toCampaignResponse(c))
		}
		render.JSON(w, items)
	})
}
