package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/testutil"
)

func Test_ClaimRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("upsert creates claim", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			benefit := createTestBenefit(t, tx, 10)

			claim, err := r.Upsert(t.Context(), user.ID, benefit.ID, 2)

			require.NoError(t, err)
			require.Equal(t, user.ID, claim.UserID)
			require.Equal(t, benefit.ID, claim.BenefitID)
			require.Equal(t, int64(2), claim.Claimed)
			require.Zero(t, claim.Used)
			require.Equal(t, models.ClaimActive, claim.Status)
			require.Nil(t, claim.UsedAt)
		})
	})

	t.Run("upsert bumps claimed counter", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			benefit := createTestBenefit(t, tx, 10)

			first, err := r.Upsert(t.Context(), user.ID, benefit.ID, 2)
			require.NoError(t, err)

			second, err := r.Upsert(t.Context(), user.ID, benefit.ID, 3)

			require.NoError(t, err)
			require.Equal(t, first.ID, second.ID, "same user and benefit should share one claim row")
			require.Equal(t, int64(5), second.Claimed)
		})
	})

	t.Run("upsert reactivates used claim", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			benefit := createTestBenefit(t, tx, 10)

			claim, err := r.Upsert(t.Context(), user.ID, benefit.ID, 1)
			require.NoError(t, err)

			used, err := r.Use(t.Context(), claim.ID, time.Now().Truncate(time.Second))
			require.NoError(t, err)
			require.Equal(t, models.ClaimUsed, used.Status)

			again, err := r.Upsert(t.Context(), user.ID, benefit.ID, 1)

			require.NoError(t, err)
			require.Equal(t, models.ClaimActive, again.Status, "a fresh claim reopens the row")
			require.Equal(t, int64(2), again.Claimed)
		})
	})

	t.Run("get claim not found", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}

			_, err := r.GetClaim(t.Context(), uuid.New())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrClaimNotFound, "should return well known error")
		})
	})

	t.Run("use consumes one unit", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			benefit := createTestBenefit(t, tx, 10)

			claim, err := r.Upsert(t.Context(), user.ID, benefit.ID, 2)
			require.NoError(t, err)

			got, err := r.Use(t.Context(), claim.ID, time.Now().Truncate(time.Second))

			require.NoError(t, err)
			require.Equal(t, int64(1), got.Used)
			require.Equal(t, models.ClaimActive, got.Status, "units left, claim stays active")
			require.Nil(t, got.UsedAt)
		})
	})

	t.Run("last use flips status", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			benefit := createTestBenefit(t, tx, 10)

			claim, err := r.Upsert(t.Context(), user.ID, benefit.ID, 2)
			require.NoError(t, err)

			now := time.Now().Truncate(time.Second)
			_, err = r.Use(t.Context(), claim.ID, now)
			require.NoError(t, err)

			got, err := r.Use(t.Context(), claim.ID, now)

			require.NoError(t, err)
			require.Equal(t, int64(2), got.Used)
			require.Equal(t, models.ClaimUsed, got.Status)
			require.NotNil(t, got.UsedAt)
			require.WithinDuration(t, now, *got.UsedAt, time.Microsecond)
		})
	})

	t.Run("use exhausted claim fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			benefit := createTestBenefit(t, tx, 10)

			claim, err := r.Upsert(t.Context(), user.ID, benefit.ID, 1)
			require.NoError(t, err)

			now := time.Now().Truncate(time.Second)
			_, err = r.Use(t.Context(), claim.ID, now)
			require.NoError(t, err)

			_, err = r.Use(t.Context(), claim.ID, now)

			require.Error(t, err, "nothing left to consume")
			require.ErrorIs(t, err, apperrors.ErrNoStockLeft, "should return well known error")
		})
	})

	t.Run("use missing claim fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}

			_, err := r.Use(t.Context(), uuid.New(), time.Now())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrClaimNotFound, "should return well known error")
		})
	})

	t.Run("list by user", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ClaimRepo{DB: tx}
			user := createTestUser(t, tx, "claimer")
			other := createTestUser(t, tx, "other")

			first := createTestBenefit(t, tx, 10)
			second := createTestBenefit(t, tx, 10)

			_, err := r.Upsert(t.Context(), user.ID, first.ID, 1)
			require.NoError(t, err)
			_, err = r.Upsert(t.Context(), user.ID, second.ID, 1)
			require.NoError(t, err)
			_, err = r.Upsert(t.Context(), other.ID, first.ID, 1)
			require.NoError(t, err)

			claims, err := r.ListByUser(t.Context(), user.ID)

			require.NoError(t, err)
			require.Len(t, claims, 2, "claims of other users stay invisible")
			for _, c := range claims {
				require.Equal(t, user.ID, c.UserID)
			}
		})
	})
}
