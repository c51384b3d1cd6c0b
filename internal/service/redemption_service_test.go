package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/seed"
)

func fund(t *testing.T, f *fixture, userID string, amount int64) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), AppendInput{
		AccountID: userID, Type: model.TxTypeAdjust, Amount: amount, Memo: "test funding",
	})
	require.NoError(t, err)
}

func rewardByTitle(t *testing.T, f *fixture, title string) *model.Reward {
	t.Helper()
	list, err := f.redemptions.ListRewards(context.Background())
	require.NoError(t, err)
	for _, r := range list {
		if r.Title == title {
			return r
		}
	}
	t.Fatalf("reward %q not seeded", title)
	return nil
}

func TestRedeem_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bottle := rewardByTitle(t, f, "Reusable Water Bottle")
	fund(t, f, seed.DemoUserID, 200)

	rd, err := f.redemptions.Redeem(ctx, seed.DemoUserID, bottle.ID)
	require.NoError(t, err)
	assert.Equal(t, bottle.Cost, rd.Cost)

	balance, err := f.ledger.Balance(ctx, seed.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	after, err := f.rewardRepo.Get(ctx, bottle.ID)
	require.NoError(t, err)
	require.NotNil(t, after.Inventory)
	assert.Equal(t, *bottle.Inventory-1, *after.Inventory)
}

func TestRedeem_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tree := rewardByTitle(t, f, "Tree Planting Donation")
	fund(t, f, seed.DemoUserID, tree.Cost-1)

	_, err := f.redemptions.Redeem(ctx, seed.DemoUserID, tree.ID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	balance, err := f.ledger.Balance(ctx, seed.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, tree.Cost-1, balance)
}

func TestRedeem_Unavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fund(t, f, seed.DemoUserID, 1000)

	_, err := f.redemptions.Redeem(ctx, seed.DemoUserID, "no-such-reward")
	assert.ErrorIs(t, err, ErrRewardUnavailable)

	voucher := rewardByTitle(t, f, "Bike Repair Voucher")
	require.NoError(t, f.db.Model(&model.Reward{}).Where("id = ?", voucher.ID).Update("inventory", 0).Error)
	_, err = f.redemptions.Redeem(ctx, seed.DemoUserID, voucher.ID)
	assert.ErrorIs(t, err, ErrRewardUnavailable)

	_, err = f.redemptions.Redeem(ctx, "ghost", voucher.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRedeem_ConcurrentSpendNeverOverdraws(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coffee := rewardByTitle(t, f, "Campus Cafe Coffee")
	fund(t, f, seed.DemoUserID, coffee.Cost*3)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		broke int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.redemptions.Redeem(ctx, seed.DemoUserID, coffee.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientBalance):
				broke++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 3, broke)
	balance, err := f.ledger.Balance(ctx, seed.DemoUserID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}
