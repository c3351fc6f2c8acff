package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/repository"
	"github.com/scastellanos/solidapp/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Tokens reference an existing user, so every subtest creates one first
	saveToken := func(t *testing.T, tx pgx.Tx) models.RefreshToken {
		t.Helper()

		users := UserRepo{DB: tx}
		user, err := users.CreateUser(t.Context(), repository.CreateUserParams{
			Login:          "token-owner",
			HashedPassword: "hash",
		})
		require.NoError(t, err)

		token := models.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     "secret-token",
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
			UsedAt:    nil,
		}

		r := RefreshTokenRepo{DB: tx}
		err = r.Save(t.Context(), token)
		require.NoError(t, err)

		return token
	}

	t.Run("save and get token ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := saveToken(t, tx)

			got, err := r.Get(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.Token, got.Token)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
			require.Nil(t, got.UsedAt, "UsedAt should be nil cause original token has UsedAt as nil")
		})
	})

	t.Run("get token not found", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.Get(t.Context(), "never-saved")

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "should return well known error")
		})
	})

	t.Run("mark used ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := saveToken(t, tx)

			usedAt, err := r.MarkUsed(t.Context(), token.Token)

			require.NoError(t, err)
			require.WithinDuration(t, time.Now(), usedAt, time.Second, "usedAt should be recent")

			got, err := r.Get(t.Context(), token.Token)
			require.NoError(t, err)
			require.NotNil(t, got.UsedAt, "UsedAt should be persisted")
		})
	})

	t.Run("mark used keeps original usedAt", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := saveToken(t, tx)

			firstUsedAt, err := r.MarkUsed(t.Context(), token.Token)
			require.NoError(t, err)

			// Wait for the next truncated second so the repo can tell the
			// second call apart from the first one
			time.Sleep(time.Until(firstUsedAt.Add(time.Second)))

			secondUsedAt, err := r.MarkUsed(t.Context(), token.Token)

			require.Error(t, err, "marking token used twice should fail")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed, "should return well known error")
			require.WithinDuration(t, firstUsedAt, secondUsedAt, 0, "original usedAt should be kept")
		})
	})

	t.Run("mark used not found", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.MarkUsed(t.Context(), "never-saved")

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "should return well known error")
		})
	})
}
