package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/handlers/render"
	"github.com/scastellanos/solidapp/internal/handlers/userctx"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/metrics"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
	"github.com/scastellanos/solidapp/internal/service/donation"
)

type donationResponse struct {
	ID           string     `json:"id"`
	CampaignID   string     `json:"campaign_id"`
	Detail       string     `json:"detail,omitempty"`
	Article      string     `json:"article,omitempty"`
	Quantity     int64      `json:"quantity"`
	PointRate    int64      `json:"point_rate"`
	Status       string     `json:"status"`
	RejectReason *string    `json:"reject_reason,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
}

func toDonationResponse(d models.Donation) donationResponse {
	return donationResponse{
		ID:           d.ID.String(),
		CampaignID:   d.CampaignID.String(),
		Detail:       d.Detail,
		Article:      d.Article,
		Quantity:     d.Quantity,
		PointRate:    d.PointRate,
		Status:       d.Status,
		RejectReason: d.RejectReason,
		RegisteredAt: d.RegisteredAt,
		DecidedAt:    d.DecidedAt,
	}
}

func handleSubmitDonation(donationService donationService, l logger.Logger) http.Handler {
	type request struct {
		CampaignID string `json:"campaign_id" validate:"required,uuid"`
		Quantity   int64  `json:"quantity" validate:"required,gt=0"`
		Detail     string `json:"detail"`
		Article    string `json:"article"`
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

		campaignID, err := uuid.Parse(req.CampaignID)
		if err != nil {
			render.ServiceError(w, "Invalid campaign id", http.StatusBadRequest)
			return
		}

		created, err := donationService.Submit(r.Context(), &user, donation.SubmitParams{
			CampaignID: campaignID,
			Quantity:   req.Quantity,
			Detail:     req.Detail,
			Article:    req.Article,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, toDonationResponse(created), http.StatusCreated)
		case errors.Is(err, apperrors.ErrCampaignNotFound), errors.Is(err, apperrors.ErrCampaignEnded):
			render.ServiceError(w, "Campaign not found or already ended", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrQuantityInvalid):
			render.ServiceError(w, "Quantity must be positive", http.StatusBadRequest)
		default:
			l.Error("Failed to submit donation", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDecideDonation(donationService donationService, l logger.Logger) http.Handler {
	type request struct {
		Decision string `json:"decision" validate:"required,oneof=approve reject"`
		Reason   string `json:"reason"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		donationID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid donation id", http.StatusBadRequest)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		decided, err := donationService.Decide(r.Context(), donationID, req.Decision, req.Reason)

		outcome := "ok"
		defer func() { metrics.RecordDonationDecision(req.Decision, outcome) }()

		switch {
		case err == nil:
			render.JSON(w, toDonationResponse(decided))
		case errors.Is(err, apperrors.ErrDonationNotFound):
			outcome = "not_found"
			render.ServiceError(w, "Donation not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrRejectReasonRequired):
			outcome = "rejected_input"
			render.ServiceError(w, "Rejection requires a reason", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrQuantityInvalid):
			outcome = "rejected_input"
			render.ServiceError(w, "Quantity must be positive", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrReopenWindowExpired):
			outcome = "window_expired"
			render.ServiceError(w, "Rejection is final, reopen window expired", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInvalidTransition):
			outcome = "invalid_transition"
			render.ServiceError(w, "Transition not allowed", http.StatusConflict)
		case errors.Is(err, apperrors.ErrConsistency):
			outcome = "conflict"
			render.ServiceError(w, "Try again later", http.StatusServiceUnavailable)
		default:
			outcome = "error"
			l.Error("Failed to decide donation", "error", err, "donation_id", donationID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

type donationListResponse struct {
	Items []donationResponse `json:"items"`
	Total int64              `json:"total"`
}

func toDonationListResponse(donations []models.Donation, total int64) donationListResponse {
	items := make([]donationResponse, 0, len(donations))
	for _, d := range donations {
		items = append(items, toDonationResponse(d))
	}
	return donationListResponse{Items: items, Total: total}
}

func handleListMyDonations(donationService donationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		donations, total, err := donationService.ListByUser(r.Context(), user.ID, pageFromQuery(r))
		if err != nil {
			l.Error("Failed to list donations", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, toDonationListResponse(donations, total))
	})
}

func handleListCampaignDonations(donationService donationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		campaignID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid campaign id", http.StatusBadRequest)
			return
		}

		donations, total, err := donationService.ListByCampaign(r.Context(), campaignID, pageFromQuery(r))
		if err != nil {
			l.Error("Failed to list campaign donations", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, toDonationListResponse(donations, total))
	})
}

func pageFromQuery(r *http.Request) repository.Page {
	var page repository.Page
	page.Number, _ = strconv.Atoi(r.URL.Query().Get("page"))
	page.Size, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	return page
}
