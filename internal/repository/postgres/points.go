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

type PointsRepo struct {
	DB DBTX
}

// Single-statement upsert so concurrent credits for the same user never
// lose updates.
const creditBalance = `-- name: CreditBalance
INSERT INTO points_accounts (user_id, balance)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE
SET balance = points_accounts.balance + EXCLUDED.balance
RETURNING user_id, balance
`

func (r *PointsRepo) Credit(ctx context.Context, userID uuid.UUID, amount int64) (models.PointsAccount, error) {
	var account models.PointsAccount
	if amount < 0 {
		return account, fmt.Errorf("credit amount must not be negative, got %d", amount)
	}

	rows, _ := r.DB.Query(ctx, creditBalance, userID, amount)
	account, err := pgx.CollectOneRow(rows, rowToAccount)
	if err != nil {
		return account, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// The balance guard lives in the WHERE clause: the check and the
// decrement are one atomic statement, no read-then-write window.
const debitBalance = `-- name: DebitBalance
UPDATE points_accounts
SET balance = balance - $2
WHERE user_id = $1 AND balance >= $2
RETURNING user_id, balance
`

func (r *PointsRepo) Debit(ctx context.Context, userID uuid.UUID, amount int64) (models.PointsAccount, error) {
	var account models.PointsAccount
	if amount < 0 {
		return account, fmt.Errorf("debit amount must not be negative, got %d", amount)
	}

	rows, _ := r.DB.Query(ctx, debitBalance, userID, amount)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows) && amount == 0:
		// Account may not exist yet, a zero debit creates it lazily
		return r.Credit(ctx, userID, 0)
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrBalanceInsufficient
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const getBalance = `-- name: GetBalance
SELECT user_id, balance FROM points_accounts
WHERE user_id = $1
`

func (r *PointsRepo) GetBalance(ctx context.Context, userID uuid.UUID) (models.PointsAccount, error) {
	rows, _ := r.DB.Query(ctx, getBalance, userID)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Accounts are created lazily, an untouched one reads as zero
		return models.PointsAccount{UserID: userID}, nil
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const addLedgerEntry = `-- name: AddLedgerEntry
INSERT INTO ledger_entries (id, user_id, amount, direction, source, source_id, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, amount, direction, source, source_id, processed_at
`

func (r *PointsRepo) AddEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, addLedgerEntry,
		entry.ID, entry.UserID, entry.Amount, entry.Direction, entry.Source, entry.SourceID, entry.ProcessedAt,
	)
	entry, err := pgx.CollectOneRow(rows, rowToLedgerEntry)
	if err != nil {
		return entry, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

const listLedgerEntries = `-- name: ListLedgerEntries
SELECT id, user_id, amount, direction, source, source_id, processed_at FROM ledger_entries
WHERE user_id = $1
ORDER BY processed_at DESC, id
`

func (r *PointsRepo) ListEntries(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, listLedgerEntries, userID)
	entries, err := pgx.CollectRows(rows, rowToLedgerEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

func rowToAccount(row pgx.CollectableRow) (models.PointsAccount, error) {
	var a models.PointsAccount
	err := row.Scan(&a.UserID, &a.Balance)
	return a, err
}

func rowToLedgerEntry(row pgx.CollectableRow) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Direction, &e.Source, &e.SourceID, &e.ProcessedAt)
	return e, err
}
