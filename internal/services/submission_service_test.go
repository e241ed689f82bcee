package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superteam-earn/internal/models"
)

func TestCreateSubmissionDebitsCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)
	talent := newUser(t, f, nil)

	submission, err := f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://x.com/thread"}, now)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)

	balance, err := f.credits.Balance(ctx, talent.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	var entry models.CreditLedger
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", talent.ID, models.CreditSubmission).First(&entry).Error)
	assert.Equal(t, -1, entry.Change)
	require.NotNil(t, entry.SubmissionID)
	assert.Equal(t, submission.ID, *entry.SubmissionID)
}

func TestCreateSubmissionRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)
	talent := newUser(t, f, nil)

	_, err := f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
	require.NoError(t, err)

	_, err = f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://b"}, now)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	balance, err := f.credits.Balance(ctx, talent.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, balance, "a rejected duplicate must not spend a credit")
}

func TestCreateSubmissionWithoutCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)
	talent := newUser(t, f, nil)

	_, err := f.credits.Adjust(ctx, talent.ID, -3, "test", now)
	require.NoError(t, err)

	_, err = f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	var count int64
	f.db.Model(&models.Submission{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateSubmissionGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	talent := newUser(t, f, func(u *models.User) { u.Location = "Germany" })

	t.Run("deadline passed", func(t *testing.T) {
		listing := publishedBounty(t, f, owner)
		_, err := f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://a"}, now.Add(96*time.Hour))
		assert.ErrorIs(t, err, ErrDeadlinePassed)
	})

	t.Run("winners announced", func(t *testing.T) {
		listing := publishedBounty(t, f, owner)
		require.NoError(t, f.db.Model(listing).Update("is_winners_announced", true).Error)
		_, err := f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
		assert.ErrorIs(t, err, ErrWinnersAnnounced)
	})

	t.Run("unpublished", func(t *testing.T) {
		draft, err := f.listings.CreateDraft(ctx, owner.ID, bountyInput(now.Add(time.Hour)))
		require.NoError(t, err)
		_, err = f.submissions.Create(ctx, talent.ID, draft.ID, SubmissionInput{Link: "https://a"}, now)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("region", func(t *testing.T) {
		input := bountyInput(now.Add(time.Hour))
		input.Region = "India"
		listing, err := f.listings.CreateDraft(ctx, owner.ID, input)
		require.NoError(t, err)
		_, err = f.listings.Publish(ctx, owner.ID, listing.ID, now)
		require.NoError(t, err)

		_, err = f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
		assert.ErrorIs(t, err, ErrRegionIneligible)
	})
}

func TestFirstSubmissionRewardsReferrer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	first := publishedBounty(t, f, owner)
	second := publishedBounty(t, f, owner)

	referrer := newUser(t, f, nil)
	referred, created, err := f.auth.ProcessWalletLogin(ctx, "referred-wallet", referrer.ReferralCode)
	require.NoError(t, err)
	require.True(t, created)
	require.NotNil(t, referred.ReferredByID)

	_, err = f.submissions.Create(ctx, referred.ID, first.ID, SubmissionInput{Link: "https://a"}, now)
	require.NoError(t, err)
	_, err = f.submissions.Create(ctx, referred.ID, second.ID, SubmissionInput{Link: "https://b"}, now)
	require.NoError(t, err)

	balance, err := f.credits.Balance(ctx, referrer.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 4, balance, "only the first submission pays the referral bonus")
}

func TestSelectWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)
	a, err := f.submissions.Create(ctx, newUser(t, f, nil).ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
	require.NoError(t, err)
	b, err := f.submissions.Create(ctx, newUser(t, f, nil).ID, listing.ID, SubmissionInput{Link: "https://b"}, now)
	require.NoError(t, err)

	_, err = f.submissions.SelectWinner(ctx, owner.ID, a.ID, "third")
	assert.ErrorIs(t, err, ErrInvalidPosition)

	won, err := f.submissions.SelectWinner(ctx, owner.ID, a.ID, "first")
	require.NoError(t, err)
	assert.True(t, won.IsWinner)
	assert.Equal(t, models.SubmissionStatusApproved, won.Status)

	_, err = f.submissions.SelectWinner(ctx, owner.ID, b.ID, "first")
	assert.ErrorIs(t, err, ErrPositionTaken)

	outsider := newUser(t, f, nil)
	_, err = f.submissions.SelectWinner(ctx, outsider.ID, b.ID, "second")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.submissions.SelectWinner(ctx, owner.ID, b.ID, "second")
	require.NoError(t, err)

	var reloaded models.Listing
	require.NoError(t, f.db.First(&reloaded, "id = ?", listing.ID).Error)
	assert.Equal(t, 2, reloaded.TotalWinnersSelected)
}

func TestRejectAsSpamCostsCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)
	talent := newUser(t, f, nil)
	submission, err := f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
	require.NoError(t, err)

	rejected, err := f.submissions.Reject(ctx, owner.ID, submission.ID, true, now)
	require.NoError(t, err)
	assert.Equal(t, LabelSpam, rejected.Label)

	balance, err := f.credits.Balance(ctx, talent.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	// marking spam twice does not double the penalty
	_, err = f.submissions.Reject(ctx, owner.ID, submission.ID, true, now)
	require.NoError(t, err)
	balance, err = f.credits.Balance(ctx, talent.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
}

func TestMarkPaidRequiresKYC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	input := bountyInput(now.Add(72 * time.Hour))
	input.Rewards = map[string]decimal.Decimal{"first": decimal.NewFromInt(300)}
	listing, err := f.listings.CreateDraft(ctx, owner.ID, input)
	require.NoError(t, err)
	_, err = f.listings.Publish(ctx, owner.ID, listing.ID, now)
	require.NoError(t, err)

	winner := newUser(t, f, func(u *models.User) { u.WalletAddress = validWallet })
	submission, err := f.submissions.Create(ctx, winner.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
	require.NoError(t, err)

	_, err = f.submissions.MarkPaid(ctx, owner.ID, submission.ID, "sig", now)
	assert.ErrorIs(t, err, ErrNotWinner)

	_, err = f.submissions.SelectWinner(ctx, owner.ID, submission.ID, "first")
	require.NoError(t, err)
	_, err = f.listings.AnnounceWinners(ctx, owner.ID, listing.ID, now)
	require.NoError(t, err)

	_, err = f.submissions.MarkPaid(ctx, owner.ID, submission.ID, "sig", now)
	assert.ErrorIs(t, err, ErrKYCRequired)

	verifiedAt := now.Add(-24 * time.Hour)
	require.NoError(t, f.db.Model(winner).Updates(map[string]interface{}{
		"is_kyc_verified": true,
		"kyc_verified_at": verifiedAt,
	}).Error)

	paid, err := f.submissions.MarkPaid(ctx, owner.ID, submission.ID, "sig", now)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "sig", paid.PaymentDetails["tx_id"])
	assert.Equal(t, "300", paid.PaymentDetails["amount"])

	_, err = f.submissions.MarkPaid(ctx, owner.ID, submission.ID, "sig", now)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	var reloaded models.Listing
	require.NoError(t, f.db.First(&reloaded, "id = ?", listing.ID).Error)
	assert.Equal(t, 1, reloaded.TotalPaymentsMade)
}

func TestAskBasedProjectPaysWinnerAsk(t *testing.T) {
	tests := []struct {
		name         string
		compensation models.CompensationType
		min, max     int64
	}{
		{name: "range", compensation: models.CompensationRange, min: 100, max: 1000},
		{name: "variable", compensation: models.CompensationVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			now := time.Now().UTC()

			owner, _ := newSponsorOwner(t, f)
			deadline := now.Add(72 * time.Hour)
			listing, err := f.listings.CreateDraft(ctx, owner.ID, ListingInput{
				Title:            "Build a dashboard",
				Type:             models.ListingTypeProject,
				Token:            "USDC",
				CompensationType: tt.compensation,
				MinRewardAsk:     decimal.NewFromInt(tt.min),
				MaxRewardAsk:     decimal.NewFromInt(tt.max),
				Deadline:         &deadline,
			})
			require.NoError(t, err)
			assert.Empty(t, listing.Rewards)
			_, err = f.listings.Publish(ctx, owner.ID, listing.ID, now)
			require.NoError(t, err)

			winner := newUser(t, f, func(u *models.User) { u.WalletAddress = validWallet })
			ask := decimal.NewFromInt(500)
			submission, err := f.submissions.Create(ctx, winner.ID, listing.ID, SubmissionInput{Link: "https://a", Ask: &ask}, now)
			require.NoError(t, err)

			_, err = f.submissions.SelectWinner(ctx, owner.ID, submission.ID, "second")
			assert.ErrorIs(t, err, ErrInvalidPosition)

			_, err = f.submissions.SelectWinner(ctx, owner.ID, submission.ID, "first")
			require.NoError(t, err)

			var reloaded models.Listing
			require.NoError(t, f.db.First(&reloaded, "id = ?", listing.ID).Error)
			assert.True(t, reloaded.Rewards["first"].Equal(ask))

			announced, err := f.listings.AnnounceWinners(ctx, owner.ID, listing.ID, now)
			require.NoError(t, err)
			assert.Equal(t, models.ListingStatusClosed, announced.Status)

			require.NoError(t, f.db.Model(winner).Updates(map[string]interface{}{
				"is_kyc_verified": true,
				"kyc_verified_at": now.Add(-time.Hour),
			}).Error)

			paid, err := f.submissions.MarkPaid(ctx, owner.ID, submission.ID, "sig-"+tt.name, now)
			require.NoError(t, err)
			assert.True(t, paid.IsPaid)
			assert.Equal(t, "500", paid.PaymentDetails["amount"])
		})
	}
}

func TestUnselectAskBasedWinnerClearsReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	deadline := now.Add(72 * time.Hour)
	listing, err := f.listings.CreateDraft(ctx, owner.ID, ListingInput{
		Title:            "Audit a program",
		Type:             models.ListingTypeProject,
		CompensationType: models.CompensationVariable,
		Deadline:         &deadline,
	})
	require.NoError(t, err)
	_, err = f.listings.Publish(ctx, owner.ID, listing.ID, now)
	require.NoError(t, err)

	talent := newUser(t, f, nil)
	ask := decimal.NewFromInt(750)
	submission, err := f.submissions.Create(ctx, talent.ID, listing.ID, SubmissionInput{Ask: &ask}, now)
	require.NoError(t, err)

	_, err = f.submissions.SelectWinner(ctx, owner.ID, submission.ID, "first")
	require.NoError(t, err)
	_, err = f.submissions.SelectWinner(ctx, owner.ID, submission.ID, "")
	require.NoError(t, err)

	var reloaded models.Listing
	require.NoError(t, f.db.First(&reloaded, "id = ?", listing.ID).Error)
	assert.Empty(t, reloaded.Rewards)
	assert.Equal(t, 0, reloaded.TotalWinnersSelected)

	_, err = f.listings.AnnounceWinners(ctx, owner.ID, listing.ID, now)
	assert.ErrorIs(t, err, ErrIncompleteWinners)
}

func TestMarkPaidRejectsReusedTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)

	verifiedAt := now.Add(-24 * time.Hour)
	kyc := func(wallet string) func(*models.User) {
		return func(u *models.User) {
			u.WalletAddress = wallet
			u.IsKYCVerified = true
			u.KYCVerifiedAt = &verifiedAt
		}
	}
	first := newUser(t, f, kyc(validWallet))
	second := newUser(t, f, kyc(otherWallet))

	firstSub, err := f.submissions.Create(ctx, first.ID, listing.ID, SubmissionInput{Link: "https://a"}, now)
	require.NoError(t, err)
	secondSub, err := f.submissions.Create(ctx, second.ID, listing.ID, SubmissionInput{Link: "https://b"}, now)
	require.NoError(t, err)

	_, err = f.submissions.SelectWinner(ctx, owner.ID, firstSub.ID, "first")
	require.NoError(t, err)
	_, err = f.submissions.SelectWinner(ctx, owner.ID, secondSub.ID, "second")
	require.NoError(t, err)
	_, err = f.listings.AnnounceWinners(ctx, owner.ID, listing.ID, now)
	require.NoError(t, err)

	_, err = f.submissions.MarkPaid(ctx, owner.ID, firstSub.ID, "shared-sig", now)
	require.NoError(t, err)

	_, err = f.submissions.MarkPaid(ctx, owner.ID, secondSub.ID, "shared-sig", now)
	assert.ErrorIs(t, err, ErrPaymentReused)

	var reloaded models.Submission
	require.NoError(t, f.db.First(&reloaded, "id = ?", secondSub.ID).Error)
	assert.False(t, reloaded.IsPaid)

	_, err = f.submissions.MarkPaid(ctx, owner.ID, secondSub.ID, "second-sig", now)
	require.NoError(t, err)
}
