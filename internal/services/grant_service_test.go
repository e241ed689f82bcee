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

func TestGrantApplicationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	grants := NewGrantService(f.db)

	owner, _ := newSponsorOwner(t, f)
	grant, err := grants.Create(ctx, owner.ID, GrantInput{
		Title:     "Ecosystem Grants",
		MinReward: decimal.NewFromInt(1000),
		MaxReward: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegionGlobal, grant.Region)

	talent := newUser(t, f, nil)
	_, err = grants.Apply(ctx, talent.ID, grant.ID, GrantApplicationInput{ProjectTitle: "Indexer", Ask: decimal.NewFromInt(20000)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	application, err := grants.Apply(ctx, talent.ID, grant.ID, GrantApplicationInput{ProjectTitle: "Indexer", Ask: decimal.NewFromInt(5000)})
	require.NoError(t, err)

	_, err = grants.Apply(ctx, talent.ID, grant.ID, GrantApplicationInput{ProjectTitle: "Again", Ask: decimal.NewFromInt(5000)})
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	_, err = grants.Review(ctx, talent.ID, application.ID, true, decimal.Zero, now)
	assert.ErrorIs(t, err, ErrForbidden)

	reviewed, err := grants.Review(ctx, owner.ID, application.ID, true, decimal.Zero, now)
	require.NoError(t, err)
	assert.Equal(t, models.GrantApplicationApproved, reviewed.ApplicationStatus)
	assert.True(t, reviewed.ApprovedAmount.Equal(decimal.NewFromInt(5000)))

	_, err = grants.Review(ctx, owner.ID, application.ID, false, decimal.Zero, now)
	assert.ErrorIs(t, err, ErrInvalidState)

	var reloaded models.Grant
	require.NoError(t, f.db.First(&reloaded, "id = ?", grant.ID).Error)
	assert.True(t, reloaded.TotalApproved.Equal(decimal.NewFromInt(5000)), reloaded.TotalApproved.String())
	assert.Equal(t, 1, reloaded.ApplicationCount)
}

func TestRejectedApplicantMayReapply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grants := NewGrantService(f.db)

	owner, _ := newSponsorOwner(t, f)
	grant, err := grants.Create(ctx, owner.ID, GrantInput{Title: "Regional", Region: "Nigeria"})
	require.NoError(t, err)

	outsider := newUser(t, f, func(u *models.User) { u.Location = "Japan" })
	_, err = grants.Apply(ctx, outsider.ID, grant.ID, GrantApplicationInput{ProjectTitle: "x", Ask: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrRegionIneligible)

	local := newUser(t, f, func(u *models.User) { u.Location = "Nigeria" })
	first, err := grants.Apply(ctx, local.ID, grant.ID, GrantApplicationInput{ProjectTitle: "x", Ask: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = grants.Review(ctx, owner.ID, first.ID, false, decimal.Zero, time.Now().UTC())
	require.NoError(t, err)

	_, err = grants.Apply(ctx, local.ID, grant.ID, GrantApplicationInput{ProjectTitle: "y", Ask: decimal.NewFromInt(10)})
	assert.NoError(t, err)

	mine, err := grants.MyApplications(ctx, local.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCommentThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comments := NewCommentService(f.db)

	owner, _ := newSponsorOwner(t, f)
	listing := publishedBounty(t, f, owner)
	author := newUser(t, f, nil)

	_, err := comments.Create(ctx, author.ID, CommentInput{RefType: "LISTING", RefID: listing.ID, Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = comments.Create(ctx, author.ID, CommentInput{RefType: models.CommentRefBounty, RefID: listing.ID, Message: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	root, err := comments.Create(ctx, author.ID, CommentInput{RefType: models.CommentRefBounty, RefID: listing.ID, Message: "Is video allowed?"})
	require.NoError(t, err)
	_, err = comments.Create(ctx, owner.ID, CommentInput{RefType: models.CommentRefBounty, RefID: listing.ID, Message: "Yes", ReplyToID: &root.ID})
	require.NoError(t, err)

	list, total, err := comments.List(ctx, models.CommentRefBounty, listing.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, comments.Delete(ctx, owner.ID, root.ID), ErrForbidden)
	require.NoError(t, comments.Delete(ctx, author.ID, root.ID))

	_, total, err = comments.List(ctx, models.CommentRefBounty, listing.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestPoW(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pows := NewPoWService(f.db)
	user := newUser(t, f, nil)

	_, err := pows.Create(ctx, user.ID, PoWInput{Title: "Dashboard", Link: "not a url"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	entry, err := pows.Create(ctx, user.ID, PoWInput{Title: "Dashboard", Link: "https://github.com/me/dash", Skills: []string{"Frontend"}})
	require.NoError(t, err)

	other := newUser(t, f, nil)
	assert.ErrorIs(t, pows.Delete(ctx, other.ID, entry.ID), ErrForbidden)
	require.NoError(t, pows.Delete(ctx, user.ID, entry.ID))

	list, err := pows.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
