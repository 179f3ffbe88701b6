package engine

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionswap/settlement-engine/types"
)

func partialParams() CreateOrderParams {
	p := basicParams()
	p.AllowPartialFills = true
	p.MinFill = sdkmath.NewInt(1000)
	return p
}

func TestCreateFill_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("fills rejected on all-or-nothing orders", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, basicParams())
		clock.Advance(90 * time.Minute)
		_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(1000), "")
		require.ErrorIs(t, err, types.ErrPartialsDisabled)
	})

	t.Run("whole-order withdraw rejected on partial orders", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		clock.Advance(90 * time.Minute)
		err := e.Withdraw(ctx, o.ID, "bob", testSecret)
		require.ErrorIs(t, err, types.ErrPartialsOnly)
	})

	t.Run("below minimum", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		clock.Advance(90 * time.Minute)
		_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(999), "")
		require.ErrorIs(t, err, types.ErrFillTooSmall)
	})

	t.Run("above remaining", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		clock.Advance(90 * time.Minute)
		_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(10001), "")
		require.ErrorIs(t, err, types.ErrFillTooLarge)
	})

	t.Run("closing fill may go below the minimum", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		p := partialParams()
		p.MinFill = sdkmath.NewInt(4000)
		o := mustCreate(t, e, p)
		clock.Advance(90 * time.Minute)

		_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(9000), "")
		require.NoError(t, err)

		// 1000 remains, below the 4000 minimum, but it closes the order
		f, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(1000), "")
		require.NoError(t, err)
		assert.True(t, f.Amount.Amount.Equal(sdkmath.NewInt(1000)))

		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusCommitted, got.Status)
		assert.True(t, got.Remaining.IsZero())
	})

	t.Run("before finality", func(t *testing.T) {
		e, _, _, _ := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(1000), "")
		require.ErrorIs(t, err, types.ErrNotFinalized)
	})

	t.Run("fully committed order rejects further fills", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		clock.Advance(90 * time.Minute)

		_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(10000), "")
		require.NoError(t, err)

		_, err = e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(1000), "")
		require.ErrorIs(t, err, types.ErrOrderCommitted)
	})
}

func TestFill_SharedSecretLifecycle(t *testing.T) {
	ctx := context.Background()
	e, bank, _, clock := newTestEngine(t)
	o := mustCreate(t, e, partialParams())
	clock.Advance(90 * time.Minute)

	f1, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(4000), "")
	require.NoError(t, err)
	f2, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(6000), "")
	require.NoError(t, err)

	got, _ := e.GetOrder(o.ID)
	assert.Equal(t, StatusCommitted, got.Status)
	assert.True(t, got.Remaining.IsZero())
	assert.Equal(t, []string{f1.ID, f2.ID}, got.FillIDs)

	// one shared secret settles every fill
	require.NoError(t, e.WithdrawFill(ctx, f1.ID, "bob", testSecret))
	assert.True(t, bank.paid("bob").Equal(sdkmath.NewInt(4000)))

	got, _ = e.GetOrder(o.ID)
	assert.Equal(t, StatusCommitted, got.Status, "one fill still pending")

	require.NoError(t, e.WithdrawFill(ctx, f2.ID, "bob", testSecret))
	assert.True(t, bank.paid("bob").Equal(sdkmath.NewInt(10000)))

	got, _ = e.GetOrder(o.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, testSecret, got.Secret)

	// settled fills cannot be replayed
	err = e.WithdrawFill(ctx, f1.ID, "bob", testSecret)
	require.ErrorIs(t, err, types.ErrFillProcessed)
}

func TestFill_PerFillSecrets(t *testing.T) {
	ctx := context.Background()
	e, _, _, clock := newTestEngine(t)
	params := e.Params()
	params.SecretScope = SecretScopeFill
	require.NoError(t, e.SetParams("owner", params))

	o := mustCreate(t, e, partialParams())
	clock.Advance(90 * time.Minute)

	secret2 := []byte("a different preimage for fill 2")
	_, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(4000), "not-a-hashlock")
	require.ErrorIs(t, err, types.ErrInvalidHashlock)

	f1, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(4000), ComputeHashlock(testSecret))
	require.NoError(t, err)
	f2, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(6000), ComputeHashlock(secret2))
	require.NoError(t, err)

	// each fill only accepts its own preimage
	err = e.WithdrawFill(ctx, f2.ID, "bob", testSecret)
	require.ErrorIs(t, err, types.ErrInvalidSecret)
	require.NoError(t, e.WithdrawFill(ctx, f1.ID, "bob", testSecret))
	require.NoError(t, e.WithdrawFill(ctx, f2.ID, "bob", secret2))

	got, _ := e.GetOrder(o.ID)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestWithdrawFill_ReceiverOnly(t *testing.T) {
	ctx := context.Background()
	e, bank, _, clock := newTestEngine(t)
	require.NoError(t, e.SetResolver("owner", ResolverConfig{Address: "resolver1", Enabled: true}))
	o := mustCreate(t, e, partialParams())
	clock.Advance(150 * time.Minute) // private resolver window

	f, err := e.CreateFill(ctx, o.ID, "resolver1", sdkmath.NewInt(4000), "")
	require.NoError(t, err)

	// the committing resolver cannot settle its own fill
	err = e.WithdrawFill(ctx, f.ID, "resolver1", testSecret)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	assert.True(t, bank.paid("resolver1").IsZero())

	require.NoError(t, e.WithdrawFill(ctx, f.ID, "bob", testSecret))
	assert.True(t, bank.paid("bob").Equal(sdkmath.NewInt(4000)))
	assert.True(t, bank.paid("resolver1").IsZero())
}

func TestRefundFill(t *testing.T) {
	ctx := context.Background()

	t.Run("filler backs out once cancellation opens", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		clock.Advance(90 * time.Minute)

		f, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(4000), "")
		require.NoError(t, err)
		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusPartiallyFilled, got.Status)
		assert.True(t, got.Remaining.Amount.Equal(sdkmath.NewInt(6000)))

		// the commitment is binding until the settlement windows close
		err = e.RefundFill(ctx, f.ID, "bob")
		require.ErrorIs(t, err, types.ErrTimelockNotExpired)

		clock.Advance(3 * time.Hour) // private cancellation
		require.NoError(t, e.RefundFill(ctx, f.ID, "bob"))
		got, _ = e.GetOrder(o.ID)
		assert.Equal(t, StatusOpen, got.Status)
		assert.True(t, got.Remaining.Equal(got.Total))

		err = e.RefundFill(ctx, f.ID, "bob")
		require.ErrorIs(t, err, types.ErrFillProcessed)
	})

	t.Run("stranger needs a cancellation stage", func(t *testing.T) {
		e, _, _, clock := newTestEngine(t)
		o := mustCreate(t, e, partialParams())
		clock.Advance(90 * time.Minute)
		f, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(4000), "")
		require.NoError(t, err)

		err = e.RefundFill(ctx, f.ID, "alice")
		require.ErrorIs(t, err, types.ErrTimelockNotExpired)

		clock.Advance(3 * time.Hour) // private cancellation
		require.NoError(t, e.RefundFill(ctx, f.ID, "alice"))
	})
}

func TestCancel_ReleasesPendingFills(t *testing.T) {
	ctx := context.Background()
	e, bank, _, clock := newTestEngine(t)
	o := mustCreate(t, e, partialParams())
	clock.Advance(90 * time.Minute)

	f1, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(4000), "")
	require.NoError(t, err)
	f2, err := e.CreateFill(ctx, o.ID, "bob", sdkmath.NewInt(3000), "")
	require.NoError(t, err)
	require.NoError(t, e.WithdrawFill(ctx, f1.ID, "bob", testSecret))

	clock.Advance(3 * time.Hour) // private cancellation
	require.NoError(t, e.Cancel(ctx, o.ID, "alice"))

	// sender gets the unfilled 3000 plus the released pending 3000;
	// the settled 4000 stays with the filler
	assert.True(t, bank.paid("alice").Equal(sdkmath.NewInt(6000)))
	assert.True(t, bank.paid("bob").Equal(sdkmath.NewInt(4000)))

	got, err := e.GetFill(f2.ID)
	require.NoError(t, err)
	assert.Equal(t, FillRefunded, got.Status)
}
