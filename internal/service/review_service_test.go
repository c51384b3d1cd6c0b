package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/seed"
)

func TestCastVote_TwoApprovesMintOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "bought a bike pump", ptr(5.0))

	out, err := f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer1ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, out.Status)
	assert.Equal(t, 1, out.ApproveCount)

	out, err = f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer2ID, true, ptr("looks legit"))
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusApproved, out.Status)
	require.NotNil(t, out.Credits)
	assert.Equal(t, int64(90), *out.Credits)

	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusApproved, stored.Status)
	assert.Equal(t, model.TierT2, stored.Tier)
	require.NotNil(t, stored.CreditsAwarded)
	assert.Equal(t, int64(90), *stored.CreditsAwarded)
	assert.Len(t, stored.Votes, 2)

	lines, err := f.ledger.Statement(ctx, seed.DemoUserID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, model.TxTypeMint, lines[0].Type)
	assert.Equal(t, int64(90), lines[0].Amount)
	assert.Equal(t, "Approved: Bike to Campus (Base:10 + Receipt:$5) x1.5 x1", lines[0].Description)
}

func TestCastVote_AppliesActiveQuizBonus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "bought a bike pump", ptr(5.0))

	_, err := f.multipliers.GrantQuizBonus(ctx, seed.DemoUserID)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	_, err = f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer1ID, true, nil)
	require.NoError(t, err)
	out, err := f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer2ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(108), *out.Credits)

	balance, err := f.ledger.Balance(ctx, seed.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(108), balance)
}

func TestCastVote_TwoRejectsWinOverApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "suspicious ride", nil)

	_, err := f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer1ID, true, nil)
	require.NoError(t, err)
	out, err := f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer2ID, false, ptr("photo reused"))
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, out.Status, "1 approve 1 reject stays pending")

	out, err = f.reviews.CastVote(ctx, claim.ID, seed.DemoAdminID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusRejected, out.Status)
	assert.Nil(t, out.Credits)

	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusRejected, stored.Status)
	assert.Nil(t, stored.CreditsAwarded)

	n, err := f.ledgerRepo.CountByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCastVote_TerminalClaimRejectsLateVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "approved ride", nil)

	for _, r := range []string{seed.DemoReviewer1ID, seed.DemoReviewer2ID} {
		_, err := f.reviews.CastVote(ctx, claim.ID, r, true, nil)
		require.NoError(t, err)
	}
	before, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)

	// a reviewer who already voted still sees ClaimNotPending once the claim is terminal
	_, err = f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer1ID, false, nil)
	assert.ErrorIs(t, err, ErrClaimNotPending)
	_, err = f.reviews.CastVote(ctx, claim.ID, seed.DemoAdminID, false, nil)
	assert.ErrorIs(t, err, ErrClaimNotPending)

	after, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, *before.CreditsAwarded, *after.CreditsAwarded)
	assert.Len(t, after.Votes, 2)
}

func TestCastVote_AlreadyVoted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "one vote only", nil)

	_, err := f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer1ID, true, nil)
	require.NoError(t, err)
	_, err = f.reviews.CastVote(ctx, claim.ID, seed.DemoReviewer1ID, true, nil)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	stored, err := f.claims.Get(ctx, claim.ID)
	require.NoError(t, err)
	approve, reject := model.Tally(stored.Votes)
	assert.Equal(t, 1, approve)
	assert.Zero(t, reject)
	assert.Equal(t, model.ClaimStatusPending, stored.Status)
}

func TestCastVote_Unauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "self review", nil)

	_, err := f.reviews.CastVote(ctx, claim.ID, seed.DemoUserID, true, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.reviews.CastVote(ctx, claim.ID, "stranger", true, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCastVote_ClaimNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.reviews.CastVote(context.Background(), "missing", seed.DemoReviewer1ID, true, nil)
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestCastVote_ConcurrentApprovesMintOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "contested ride", nil)

	reviewers := []string{seed.DemoReviewer1ID, seed.DemoReviewer2ID, seed.DemoAdminID}
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		notPending int
	)
	for _, r := range reviewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reviews.CastVote(ctx, claim.ID, r, true, nil)
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrClaimNotPending) {
				notPending++
				return
			}
			t.Errorf("unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notPending, "the third vote arrives after finalize")
	n, err := f.ledgerRepo.CountByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	balance, err := f.ledger.Balance(ctx, seed.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance)
}

func TestFinalize_Redundant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	claim := f.submit(t, "finalize twice", nil)

	out, err := f.reviews.Finalize(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, out.Status)

	for _, r := range []string{seed.DemoReviewer1ID, seed.DemoReviewer2ID} {
		_, err := f.reviews.CastVote(ctx, claim.ID, r, true, nil)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		out, err := f.reviews.Finalize(ctx, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ClaimStatusApproved, out.Status)
	}

	n, err := f.ledgerRepo.CountByClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.reviews.Finalize(ctx, "missing")
	assert.ErrorIs(t, err, ErrClaimNotFound)
}
