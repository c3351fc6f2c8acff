package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/handlers/render"
	"github.com/scastellanos/solidapp/internal/handlers/userctx"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/metrics"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/service/benefit"
)

type benefitResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Stock     int64  `json:"stock"`
	PointCost int64  `json:"point_cost"`
	Status    string `json:"status"`
}

func toBenefitResponse(b models.Benefit) benefitResponse {
	return benefitResponse{
		ID:        b.ID.String(),
		Title:     b.Title,
		Kind:      b.Kind,
		Detail:    b.Detail,
		Stock:     b.Stock,
		PointCost: b.PointCost,
		Status:    b.Status,
	}
}

type claimResponse struct {
	ID        string     `json:"id"`
	BenefitID string     `json:"benefit_id"`
	Claimed   int64      `json:"claimed"`
	Used      int64      `json:"used"`
	Status    string     `json:"status"`
	ClaimedAt time.Time  `json:"claimed_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func toClaimResponse(c models.Claim) claimResponse {
	return claimResponse{
		ID:        c.ID.String(),
		BenefitID: c.BenefitID.String(),
		Claimed:   c.Claimed,
		Used:      c.Used,
		Status:    c.Status,
		ClaimedAt: c.ClaimedAt,
		UsedAt:    c.UsedAt,
	}
}

func handleCreateBenefit(benefitService benefitService, l logger.Logger) http.Handler {
	type request struct {
		Title     string `json:"title" validate:"required"`
		Kind      string `json:"kind"`
		Detail    string `json:"detail"`
		Stock     int64  `json:"stock" validate:"gte=0"`
		PointCost int64  `json:"point_cost" validate:"required,gt=0"`
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

		created, err := benefitService.Create(r.Context(), &user, benefit.CreateParams{
			Title:     req.Title,
			Kind:      req.Kind,
			Detail:    req.Detail,
			Stock:     req.Stock,
			PointCost: req.PointCost,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, toBenefitResponse(created), http.StatusCreated)
		case errors.Is(err, apperrors.ErrQuantityInvalid):
			render.ServiceError(w, "Invalid stock or point cost", http.StatusBadRequest)
		default:
			l.Error("Failed to create benefit", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleApproveBenefit(benefitService benefitService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		benefitID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid benefit id", http.StatusBadRequest)
			return
		}

		approved, err := benefitService.Approve(r.Context(), benefitID)

		switch {
		case err == nil:
			render.JSON(w, toBenefitResponse(approved))
		case errors.Is(err, apperrors.ErrBenefitNotFound):
			render.ServiceError(w, "Benefit not found", http.StatusNotFound)
		default:
			l.Error("Failed to approve benefit", "error", err, "benefit_id", benefitID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListBenefits(benefitService benefitService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		benefits, err := benefitService.ListAvailable(r.Context())
		if err != nil {
			l.Error("Failed to list benefits", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]benefitResponse, 0, len(benefits))
		for _, b := range benefits {
			items = append(items, toBenefitResponse(b))
		}
		render.JSON(w, items)
	})
}

func handleClaimBenefit(benefitService benefitService, l logger.Logger) http.Handler {
	type request struct {
		Quantity int64 `json:"quantity" validate:"required,gt=0"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		benefitID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid benefit id", http.StatusBadRequest)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		start := time.Now()
		claim, err := benefitService.Claim(r.Context(), &user, benefitID, req.Quantity)

		outcome := "ok"
		defer func() { metrics.RecordBenefitClaim(outcome, time.Since(start).Seconds()) }()

		switch {
		case err == nil:
			render.JSONWithStatus(w, toClaimResponse(claim), http.StatusCreated)
		case errors.Is(err, apperrors.ErrBenefitNotFound):
			outcome = "not_found"
			render.ServiceError(w, "Benefit not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrQuantityInvalid):
			outcome = "rejected_input"
			render.ServiceError(w, "Quantity must be positive", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrNoStockLeft):
			outcome = "no_stock"
			render.ServiceError(w, "No stock available", http.StatusConflict)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			outcome = "insufficient_balance"
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrConsistency):
			outcome = "conflict"
			render.ServiceError(w, "Try again later", http.StatusServiceUnavailable)
		default:
			outcome = "error"
			l.Error("Failed to claim benefit", "error", err, "benefit_id", benefitID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUseClaim(benefitService benefitService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		claimID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid claim id", http.StatusBadRequest)
			return
		}

		claim, err := benefitService.Use(r.Context(), &user, claimID)

		switch {
		case err == nil:
			render.JSON(w, toClaimResponse(claim))
		case errors.Is(err, apperrors.ErrClaimNotFound):
			render.ServiceError(w, "Claim not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrNoStockLeft):
			render.ServiceError(w, "Claim fully used", http.StatusConflict)
		default:
			l.Error("Failed to use claim", "error", err, "claim_id", claimID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListClaims(benefitService benefitService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		claims, err := benefitService.ListClaims(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list claims", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]claimResponse, 0, len(claims))
		for _, c := range claims {
			items = append(items, toClaimResponse(c))
		}
		render.JSON(w, items)
	})
}
