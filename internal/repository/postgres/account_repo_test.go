package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/repository/postgres"
	"github.com/dom/kavholm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(username, email string) *domain.Account {
	return &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    "Test",
		LastName:     "Tester",
		CreatedAt:    time.Now(),
	}
}

func TestAccountRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAccountRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newAccount("taken", "taken@kavholm.test")))

	tests := []struct {
		name    string
		account *domain.Account
		wantErr error
	}{
		{
			name:    "successful creation",
			account: newAccount("fresh", "fresh@kavholm.test"),
		},
		{
			name:    "duplicate username",
			account: newAccount("taken", "other@kavholm.test"),
			wantErr: domain.ErrDuplicateUsername,
		},
		{
			name:    "duplicate email",
			account: newAccount("other", "taken@kavholm.test"),
			wantErr: domain.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.account)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tt.account.ID)
			assert.False(t, tt.account.IsAdmin)
		})
	}
}

func TestAccountRepository_Lookups(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := newAccount("lookup", "lookup@kavholm.test")
	require.NoError(t, repo.Create(ctx, account))

	t.Run("by email", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "lookup@kavholm.test")
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
		assert.Equal(t, "hashedpassword", found.PasswordHash)
	})

	t.Run("by username", func(t *testing.T) {
		found, err := repo.GetByUsername(ctx, "lookup")
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@kavholm.test")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)

		_, err = repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestAccountRepository_SaveResetCredential(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := newAccount("resetter", "resetter@kavholm.test")
	require.NoError(t, repo.Create(ctx, account))

	expires := time.Now().Add(time.Hour).Truncate(time.Microsecond)

	t.Run("stores credential on matching account", func(t *testing.T) {
		updated, err := repo.SaveResetCredential(ctx, "resetter@kavholm.test", domain.ResetCredential{
			Token:     "first-token",
			ExpiresAt: expires,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.PasswordResetToken)
		assert.Equal(t, "first-token", *updated.PasswordResetToken)
		require.NotNil(t, updated.PasswordResetTokenExpiry)
		assert.WithinDuration(t, expires, *updated.PasswordResetTokenExpiry, time.Millisecond)
		assert.Equal(t, account.ID, updated.ID)
	})

	t.Run("newer request replaces older token", func(t *testing.T) {
		_, err := repo.SaveResetCredential(ctx, "resetter@kavholm.test", domain.ResetCredential{
			Token:     "second-token",
			ExpiresAt: expires,
		})
		require.NoError(t, err)

		stored := testutil.LoadAccount(t, testDB.DB, account.ID)
		require.NotNil(t, stored.PasswordResetToken)
		assert.Equal(t, "second-token", *stored.PasswordResetToken)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.SaveResetCredential(ctx, "nobody@kavholm.test", domain.ResetCredential{
			Token:     "orphan-token",
			ExpiresAt: expires,
		})
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestAccountRepository_ConsumeResetCredential(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAccountRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name      string
		stored    string
		expiresAt time.Time
		presented string
		wantErr   error
	}{
		{
			name:      "valid token",
			stored:    "valid-token",
			expiresAt: now.Add(time.Hour),
			presented: "valid-token",
		},
		{
			name:      "expired token",
			stored:    "expired-token",
			expiresAt: now.Add(-time.Minute),
			presented: "expired-token",
			wantErr:   domain.ErrInvalidOrExpiredToken,
		},
		{
			name:      "unknown token",
			stored:    "real-token",
			expiresAt: now.Add(time.Hour),
			presented: "made-up-token",
			wantErr:   domain.ErrInvalidOrExpiredToken,
		},
		{
			name:      "empty token",
			stored:    "some-token",
			expiresAt: now.Add(time.Hour),
			presented: "",
			wantErr:   domain.ErrInvalidOrExpiredToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB.Truncate(t)
			account := newAccount("consumer", "consumer@kavholm.test")
			require.NoError(t, repo.Create(ctx, account))
			testutil.SetResetCredential(t, testDB.DB, account.ID, tt.stored, tt.expiresAt)

			updated, err := repo.ConsumeResetCredential(ctx, tt.presented, "newhash", now)
			stored := testutil.LoadAccount(t, testDB.DB, account.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "hashedpassword", stored.PasswordHash)
				assert.NotNil(t, stored.PasswordResetToken)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, account.ID, updated.ID)
			assert.Equal(t, "newhash", stored.PasswordHash)
			assert.Nil(t, stored.PasswordResetToken)
			assert.Nil(t, stored.PasswordResetTokenExpiry)
		})
	}
}

func TestAccountRepository_ConsumeResetCredential_SingleUse(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := newAccount("once", "once@kavholm.test")
	require.NoError(t, repo.Create(ctx, account))
	testutil.SetResetCredential(t, testDB.DB, account.ID, "once-token", time.Now().Add(time.Hour))

	_, err := repo.ConsumeResetCredential(ctx, "once-token", "firsthash", time.Now())
	require.NoError(t, err)

	_, err = repo.ConsumeResetCredential(ctx, "once-token", "secondhash", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

	stored := testutil.LoadAccount(t, testDB.DB, account.ID)
	assert.Equal(t, "firsthash", stored.PasswordHash)
}

func TestAccountRepository_ConsumeResetCredential_Concurrent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := newAccount("racer", "racer@kavholm.test")
	require.NoError(t, repo.Create(ctx, account))
	testutil.SetResetCredential(t, testDB.DB, account.ID, "race-token", time.Now().Add(time.Hour))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := repo.ConsumeResetCredential(ctx, "race-token", "racehash", time.Now())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken) {
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one consumer should win")
	assert.Equal(t, workers-1, rejected)
}
