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

// Creates the user and campaign rows donations depend on
func donationFixture(t *testing.T, tx pgx.Tx) (models.User, models.Campaign) {
	t.Helper()

	users := UserRepo{DB: tx}
	user, err := users.CreateUser(t.Context(), repository.CreateUserParams{
		Login:          "donor",
		Name:           "Don",
		Surname:        "Or",
		HashedPassword: "hash",
	})
	require.NoError(t, err)

	campaigns := CampaignRepo{DB: tx}
	campaign, err := campaigns.CreateCampaign(t.Context(), repository.CreateCampaignParams{
		OrganizationID: uuid.New(),
		Title:          "Winter clothes",
		PointRate:      10,
		EndsAt:         time.Now().Add(24 * time.Hour).Truncate(time.Second),
	})
	require.NoError(t, err)

	return user, campaign
}

func pendingDonation(user models.User, campaign models.Campaign, qty int64) models.Donation {
	return models.Donation{
		ID:           uuid.New(),
		CampaignID:   campaign.ID,
		UserID:       user.ID,
		Detail:       "warm jackets",
		Article:      "jacket",
		Quantity:     qty,
		PointRate:    campaign.PointRate,
		Status:       models.DonationPending,
		RegisteredAt: time.Now().Truncate(time.Second),
	}
}

func Test_DonationRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create donation ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}
			user, campaign := donationFixture(t, tx)

			created, err := r.CreateDonation(t.Context(), pendingDonation(user, campaign, 3))

			require.NoError(t, err)
			require.Equal(t, campaign.ID, created.CampaignID)
			require.Equal(t, user.ID, created.UserID)
			require.Equal(t, int64(3), created.Quantity)
			require.Equal(t, campaign.PointRate, created.PointRate)
			require.Equal(t, models.DonationPending, created.Status)
			require.Nil(t, created.RejectReason)
			require.Nil(t, created.DecidedAt)
		})
	})

	t.Run("get donation ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}
			user, campaign := donationFixture(t, tx)
			created, err := r.CreateDonation(t.Context(), pendingDonation(user, campaign, 3))
			require.NoError(t, err)

			got, err := r.GetDonation(t.Context(), created.ID)

			require.NoError(t, err)
			require.Equal(t, created, got)
		})
	})

	t.Run("get donation not found", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}

			_, err := r.GetDonation(t.Context(), uuid.New())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrDonationNotFound, "should return well known error")
		})
	})

	t.Run("get donation for update ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}
			user, campaign := donationFixture(t, tx)
			created, err := r.CreateDonation(t.Context(), pendingDonation(user, campaign, 3))
			require.NoError(t, err)

			got, err := r.GetDonationForUpdate(t.Context(), created.ID)

			require.NoError(t, err)
			require.Equal(t, created, got)
		})
	})

	t.Run("set status", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}
			user, campaign := donationFixture(t, tx)
			created, err := r.CreateDonation(t.Context(), pendingDonation(user, campaign, 3))
			require.NoError(t, err)

			t.Run("approve", func(t *testing.T) {
				testutil.InTx(tx, t, func(ttx pgx.Tx) {
					r := DonationRepo{DB: ttx}
					now := time.Now().Truncate(time.Second)

					got, err := r.SetStatus(t.Context(), created.ID, models.DonationApproved, nil, &now)

					require.NoError(t, err)
					require.Equal(t, models.DonationApproved, got.Status)
					require.Nil(t, got.RejectReason)
					require.NotNil(t, got.DecidedAt)
					require.WithinDuration(t, now, *got.DecidedAt, time.Microsecond)
				})
			})

			t.Run("reject with reason", func(t *testing.T) {
				testutil.InTx(tx, t, func(ttx pgx.Tx) {
					r := DonationRepo{DB: ttx}
					now := time.Now().Truncate(time.Second)
					reason := "items damaged"

					got, err := r.SetStatus(t.Context(), created.ID, models.DonationRejected, &reason, &now)

					require.NoError(t, err)
					require.Equal(t, models.DonationRejected, got.Status)
					require.NotNil(t, got.RejectReason)
					require.Equal(t, reason, *got.RejectReason)
				})
			})

			t.Run("reject without reason violates schema", func(t *testing.T) {
				testutil.InTx(tx, t, func(ttx pgx.Tx) {
					r := DonationRepo{DB: ttx}
					now := time.Now().Truncate(time.Second)

					_, err := r.SetStatus(t.Context(), created.ID, models.DonationRejected, nil, &now)

					require.Error(t, err, "schema should refuse a rejection with no reason")
				})
			})
		})
	})

	t.Run("list by user", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}
			user, campaign := donationFixture(t, tx)

			for range 3 {
				_, err := r.CreateDonation(t.Context(), pendingDonation(user, campaign, 1))
				require.NoError(t, err)
			}

			donations, total, err := r.ListByUser(t.Context(), user.ID, repository.Page{Number: 1, Size: 2})

			require.NoError(t, err)
			require.Len(t, donations, 2, "page size should cap the result")
			require.Equal(t, int64(3), total, "total should count all user donations")

			donations, total, err = r.ListByUser(t.Context(), user.ID, repository.Page{Number: 2, Size: 2})
			require.NoError(t, err)
			require.Len(t, donations, 1, "second page should hold the rest")
			require.Equal(t, int64(3), total)
		})
	})

	t.Run("list by user empty", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}

			donations, total, err := r.ListByUser(t.Context(), uuid.New(), repository.Page{Number: 1, Size: 10})

			require.NoError(t, err)
			require.Empty(t, donations)
			require.Zero(t, total)
		})
	})

	t.Run("list by campaign", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := DonationRepo{DB: tx}
			user, campaign := donationFixture(t, tx)
			_, err := r.CreateDonation(t.Context(), pendingDonation(user, campaign, 1))
			require.NoError(t, err)

			donations, total, err := r.ListByCampaign(t.Context(), campaign.ID, repository.Page{Number: 1, Size: 10})

			require.NoError(t, err)
			require.Len(t, donations, 1)
			require.Equal(t, int64(1), total)
			require.Equal(t, campaign.ID, donations[0].CampaignID)
		})
	})
}
