package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserDisabled      = errors.New("user is disabled")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignEnded    = errors.New("campaign already ended")

	ErrDonationNotFound     = errors.New("donation not found")
	ErrQuantityInvalid      = errors.New("quantity must be positive")
	ErrRejectReasonRequired = errors.New("rejection requires a reason")
	ErrInvalidTransition    = errors.New("donation state transition not allowed")
	ErrReopenWindowExpired  = errors.New("rejection is final, reopen window expired")

	ErrBalanceInsufficient = errors.New("insufficient balance")
	ErrRankingNegative     = errors.New("ranking points must not go negative")

	ErrBenefitNotFound = errors.New("benefit not found")
	ErrNoStockLeft     = errors.New("no stock available")
	ErrClaimNotFound   = errors.New("claim not found")
	ErrClaimExhausted  = errors.New("claim fully used")

	// Returned when a multi-entity transaction could not commit even after
	// the internal retry. Safe to retry from the caller side.
	ErrConsistency = errors.New("operation could not be applied consistently")
)
