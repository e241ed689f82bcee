package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"superteam-earn/internal/cache"
	"superteam-earn/internal/models"
	"superteam-earn/internal/repository"
	"superteam-earn/internal/services"
	"superteam-earn/internal/testutil"
)

func newTestScheduler(t *testing.T) (*Scheduler, *services.CreditService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	mem := cache.NewMemoryCache()
	credits := services.NewCreditService(db, 3)
	listings := services.NewListingService(db, repository.NewListingRepository(db),
		services.NewPriceService(mem, "", "", time.Minute),
		services.NewEmailService(db, nil, "", "", 0, 0), mem, 4, "")
	return NewScheduler(listings, credits, services.NewKYCService(db)), credits, db
}

func TestSchedulerNames(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	assert.Equal(t, []string{DeadlineSweep, KYCExpiry, MonthlyCredits}, s.Names())
}

func TestSchedulerRunUnknown(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	_, err := s.Run(context.Background(), "reindex")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestSchedulerRunJobs(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	for _, name := range s.Names() {
		affected, err := s.Run(ctx, name)
		require.NoError(t, err, name)
		assert.Zero(t, affected, name)
	}
}

func TestMonthlyCreditsJobGrantsUsers(t *testing.T) {
	s, credits, db := newTestScheduler(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	user := models.User{Username: "sol-dev", WalletAddress: "wallet-1", ReferralCode: "ABCDEFGH"}
	require.NoError(t, db.Create(&user).Error)

	affected, err := s.Run(ctx, MonthlyCredits)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	balance, err := credits.Balance(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestSchedulerStartStop(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
