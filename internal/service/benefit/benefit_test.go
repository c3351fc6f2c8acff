package benefit

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/scastellanos/solidapp/internal/apperrors"
	"github.com/scastellanos/solidapp/internal/logger"
	"github.com/scastellanos/solidapp/internal/models"
	"github.com/scastellanos/solidapp/internal/notify"
	"github.com/scastellanos/solidapp/internal/repository"
	"github.com/scastellanos/solidapp/internal/repository/postgres"
	"github.com/scastellanos/solidapp/internal/testutil"
)

func TestBenefitService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper to run a subtest with a service, a user holding 100 points
	// and an approved benefit inside a rolled back transaction
	withTx := func(t *testing.T, fn func(s *Service, storage repository.Storage, user *models.User, benefit models.Benefit)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			service := NewService(storage, notify.NopNotifier{}, logger.NewNoOpLogger())

			user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
				Login:          "claimer",
				HashedPassword: "hash",
			})
			require.NoError(t, err, "creating user should not fail")

			_, err = storage.Points().Credit(t.Context(), user.ID, 100)
			require.NoError(t, err, "crediting user should not fail")

			benefit, err := service.Create(t.Context(), &user, CreateParams{
				Title:     "Cinema ticket",
				Kind:      "voucher",
				Stock:     5,
				PointCost: 20,
			})
			require.NoError(t, err, "creating benefit should not fail")

			benefit, err = service.Approve(t.Context(), benefit.ID)
			require.NoError(t, err, "approving benefit should not fail")

			fn(service, storage, &user, benefit)
		})
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("starts pending", func(t *testing.T) {
			withTx(t, func(s *Service, _ repository.Storage, user *models.User, _ models.Benefit) {
				created, err := s.Create(t.Context(), user, CreateParams{
					Title:     "Gym pass",
					Stock:     3,
					PointCost: 10,
				})

				require.NoError(t, err)
				require.Equal(t, models.BenefitPending, created.Status)
				require.Equal(t, user.ID, created.CompanyID)
			})
		})

		t.Run("invalid stock or cost fails", func(t *testing.T) {
			withTx(t, func(s *Service, _ repository.Storage, user *models.User, _ models.Benefit) {
				_, err := s.Create(t.Context(), user, CreateParams{Title: "Bad", Stock: -1, PointCost: 10})
				require.ErrorIs(t, err, apperrors.ErrQuantityInvalid)

				_, err = s.Create(t.Context(), user, CreateParams{Title: "Bad", Stock: 1, PointCost: 0})
				require.ErrorIs(t, err, apperrors.ErrQuantityInvalid)
			})
		})
	})

	t.Run("ListAvailable hides pending benefits", func(t *testing.T) {
		withTx(t, func(s *Service, _ repository.Storage, user *models.User, benefit models.Benefit) {
			_, err := s.Create(t.Context(), user, CreateParams{Title: "Hidden", Stock: 3, PointCost: 10})
			require.NoError(t, err)

			available, err := s.ListAvailable(t.Context())

			require.NoError(t, err)
			require.Len(t, available, 1)
			require.Equal(t, benefit.ID, available[0].ID)
		})
	})

	t.Run("Claim", func(t *testing.T) {
		t.Run("debits balance and stock together", func(t *testing.T) {
			withTx(t, func(s *Service, storage repository.Storage, user *models.User, benefit models.Benefit) {
				claim, err := s.Claim(t.Context(), user, benefit.ID, 2)

				require.NoError(t, err)
				require.Equal(t, int64(2), claim.Claimed)
				require.Equal(t, models.ClaimActive, claim.Status)

				account, err := storage.Points().GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.Equal(t, int64(60), account.Balance, "2 units at 20 points each")

				got, err := storage.Benefit().GetBenefit(t.Context(), benefit.ID)
				require.NoError(t, err)
				require.Equal(t, int64(3), got.Stock)

				entries, err := storage.Points().ListEntries(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, entries, 1)
				require.Equal(t, int64(40), entries[0].Amount)
				require.Equal(t, models.LedgerDirectionDebit, entries[0].Direction)
				require.Equal(t, models.LedgerSourceBenefit, entries[0].Source)
				require.Equal(t, benefit.ID, entries[0].SourceID)
			})
		})

		t.Run("zero quantity fails", func(t *testing.T) {
			withTx(t, func(s *Service, _ repository.Storage, user *models.User, benefit models.Benefit) {
				_, err := s.Claim(t.Context(), user, benefit.ID, 0)

				require.ErrorIs(t, err, apperrors.ErrQuantityInvalid)
			})
		})

		t.Run("pending benefit is not claimable", func(t *testing.T) {
			withTx(t, func(s *Service, _ repository.Storage, user *models.User, _ models.Benefit) {
				pending, err := s.Create(t.Context(), user, CreateParams{Title: "Soon", Stock: 3, PointCost: 10})
				require.NoError(t, err)

				_, err = s.Claim(t.Context(), user, pending.ID, 1)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrBenefitNotFound, "unapproved benefits stay invisible")
			})
		})

		t.Run("insufficient balance leaves stock untouched", func(t *testing.T) {
			withTx(t, func(s *Service, storage repository.Storage, user *models.User, benefit models.Benefit) {
				// 5 units at 20 points each is 100, balance holds 100, but
				// claim 6 exceeds the stock first; use a pricier benefit
				pricey, err := s.Create(t.Context(), user, CreateParams{Title: "Big", Stock: 5, PointCost: 60})
				require.NoError(t, err)
				pricey, err = s.Approve(t.Context(), pricey.ID)
				require.NoError(t, err)

				_, err = s.Claim(t.Context(), user, pricey.ID, 2)

				require.Error(t, err, "120 points cost exceeds the 100 points balance")
				require.ErrorIs(t, err, apperrors.ErrBalanceInsufficient)

				got, err := storage.Benefit().GetBenefit(t.Context(), pricey.ID)
				require.NoError(t, err)
				require.Equal(t, int64(5), got.Stock, "stock decrement should roll back")

				account, err := storage.Points().GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.Equal(t, int64(100), account.Balance, "balance should stay untouched")
			})
		})

		t.Run("missing stock leaves balance untouched", func(t *testing.T) {
			withTx(t, func(s *Service, storage repository.Storage, user *models.User, _ models.Benefit) {
				scarce, err := s.Create(t.Context(), user, CreateParams{Title: "Rare", Stock: 1, PointCost: 10})
				require.NoError(t, err)
				scarce, err = s.Approve(t.Context(), scarce.ID)
				require.NoError(t, err)

				_, err = s.Claim(t.Context(), user, scarce.ID, 2)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrNoStockLeft)

				account, err := storage.Points().GetBalance(t.Context(), user.ID)
				require.NoError(t, err)
				require.Equal(t, int64(100), account.Balance)
			})
		})
	})

	t.Run("Use", func(t *testing.T) {
		t.Run("consumes until exhausted", func(t *testing.T) {
			withTx(t, func(s *Service, _ repository.Storage, user *models.User, benefit models.Benefit) {
				claim, err := s.Claim(t.Context(), user, benefit.ID, 2)
				require.NoError(t, err)

				used, err := s.Use(t.Context(), user, claim.ID)
				require.NoError(t, err)
				require.Equal(t, int64(1), used.Used)
				require.Equal(t, models.ClaimActive, used.Status)

				used, err = s.Use(t.Context(), user, claim.ID)
				require.NoError(t, err)
				require.Equal(t, int64(2), used.Used)
				require.Equal(t, models.ClaimUsed, used.Status, "last unit flips the claim")

				_, err = s.Use(t.Context(), user, claim.ID)
				require.Error(t, err, "nothing left to consume")
				require.ErrorIs(t, err, apperrors.ErrNoStockLeft)
			})
		})

		t.Run("claims of other users stay invisible", func(t *testing.T) {
			withTx(t, func(s *Service, storage repository.Storage, user *models.User, benefit models.Benefit) {
				claim, err := s.Claim(t.Context(), user, benefit.ID, 1)
				require.NoError(t, err)

				other, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
					Login:          "other",
					HashedPassword: "hash",
				})
				require.NoError(t, err)

				_, err = s.Use(t.Context(), &other, claim.ID)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrClaimNotFound)
			})
		})
	})

	t.Run("ListClaims", func(t *testing.T) {
		withTx(t, func(s *Service, _ repository.Storage, user *models.User, benefit models.Benefit) {
			_, err := s.Claim(t.Context(), user, benefit.ID, 1)
			require.NoError(t, err)

			claims, err := s.ListClaims(t.Context(), user.ID)

			require.NoError(t, err)
			require.Len(t, claims, 1)
			require.Equal(t, benefit.ID, claims[0].BenefitID)
		})
	})
}

// Concurrent claims run against the pool directly: transactions must
// serialize on the stock row and never oversell.
func TestBenefitService_ConcurrentClaims(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)
	service := NewService(storage, notify.NopNotifier{}, logger.NewNoOpLogger())

	company, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
		Login:          "company",
		HashedPassword: "hash",
	})
	require.NoError(t, err)

	benefit, err := service.Create(t.Context(), &company, CreateParams{
		Title:     "Limited voucher",
		Stock:     2,
		PointCost: 10,
	})
	require.NoError(t, err)
	benefit, err = service.Approve(t.Context(), benefit.ID)
	require.NoError(t, err)

	const claimers = 4
	users := make([]models.User, claimers)
	for i := range users {
		users[i], err = storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Login:          fmt.Sprintf("claimer-%d", i),
			HashedPassword: "hash",
		})
		require.NoError(t, err)
		_, err = storage.Points().Credit(t.Context(), users[i].ID, 100)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	claimErrs := make([]error, claimers)

	for i := range claimers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, claimErrs[i] = service.Claim(t.Context(), &users[i], benefit.ID, 1)
		}()
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range claimErrs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, apperrors.ErrNoStockLeft, "losers should see an empty stock")
			outOfStock++
		}
	}

	require.Equal(t, 2, succeeded, "exactly the stock amount should be sold")
	require.Equal(t, 2, outOfStock)

	got, err := storage.Benefit().GetBenefit(t.Context(), benefit.ID)
	require.NoError(t, err)
	require.Zero(t, got.Stock, "stock should be drained exactly to zero")
}
