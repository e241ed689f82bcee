package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"superteam-earn/internal/cache"
	"superteam-earn/internal/models"
	"superteam-earn/internal/repository"
	"superteam-earn/internal/testutil"
)

type fixture struct {
	db          *gorm.DB
	credits     *CreditService
	auth        *AuthService
	users       *UserService
	sponsors    *SponsorService
	listings    *ListingService
	submissions *SubmissionService
	emails      *EmailService
	sender      *recordingSender
	cache       *cache.MemoryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	mem := cache.NewMemoryCache()
	sender := &recordingSender{}
	credits := NewCreditService(db, 3)
	emails := NewEmailService(db, sender, "Earn <hello@earn.test>", "", 5, 0)
	prices := NewPriceService(mem, "http://127.0.0.1:0", "http://127.0.0.1:0", time.Minute)

	return &fixture{
		db:          db,
		credits:     credits,
		auth:        NewAuthService(db, credits, 10),
		users:       NewUserService(db),
		sponsors:    NewSponsorService(db),
		listings:    NewListingService(db, repository.NewListingRepository(db), prices, emails, mem, 2, "https://earn.test"),
		submissions: NewSubmissionService(db, NewPaymentService(nil, nil, false)),
		emails:      emails,
		sender:      sender,
		cache:       mem,
	}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, _, _ string, msg EmailMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[msg.To] {
		return "", fmt.Errorf("mailbox unavailable")
	}
	r.sent = append(r.sent, msg)
	return uuid.NewString(), nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// validWallet and otherWallet are well-formed Solana addresses
const (
	validWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	otherWallet = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

func newUser(t *testing.T, f *fixture, mutate func(*models.User)) *models.User {
	t.Helper()
	user, created, err := f.auth.ProcessWalletLogin(context.Background(), uuid.NewString(), "")
	require.NoError(t, err)
	require.True(t, created)
	if mutate != nil {
		mutate(user)
		require.NoError(t, f.db.Save(user).Error)
	}
	return user
}

func newSponsorOwner(t *testing.T, f *fixture) (*models.User, *models.Sponsor) {
	t.Helper()
	owner := newUser(t, f, nil)
	sponsor, err := f.sponsors.Create(context.Background(), owner.ID, SponsorInput{Name: "Sponsor " + uuid.NewString()[:8]})
	require.NoError(t, err)
	return owner, sponsor
}

func bountyInput(deadline time.Time) ListingInput {
	return ListingInput{
		Title:    "Write a thread",
		Type:     models.ListingTypeBounty,
		Token:    "USDC",
		Deadline: &deadline,
		Rewards: map[string]decimal.Decimal{
			"first":  decimal.NewFromInt(500),
			"second": decimal.NewFromInt(250),
		},
	}
}

func publishedBounty(t *testing.T, f *fixture, owner *models.User) *models.Listing {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	listing, err := f.listings.CreateDraft(ctx, owner.ID, bountyInput(now.Add(72*time.Hour)))
	require.NoError(t, err)
	listing, err = f.listings.Publish(ctx, owner.ID, listing.ID, now)
	require.NoError(t, err)
	return listing
}

func strPtr(s string) *string { return &s }
