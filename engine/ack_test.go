package engine

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

func crossChainEngine(t *testing.T) (*Engine, *fakeBank, *fakeTransport, *testClock) {
	t.Helper()
	e, bank, transport, clock := newTestEngine(t)
	require.NoError(t, e.UpsertChain("owner", ChainConfig{
		ChainID: 7, Name: "hub", Channel: "channel-0", Active: true,
	}))
	return e, bank, transport, clock
}

func crossChainParams() CreateOrderParams {
	p := basicParams()
	p.CrossChain = &CrossChainLeg{DstChainID: 7, DstRecipient: "carol", DstToken: "uatom"}
	return p
}

func TestWithdraw_CrossChain(t *testing.T) {
	ctx := context.Background()

	t.Run("withdraw initiates the destination leg and waits", func(t *testing.T) {
		e, bank, transport, clock := crossChainEngine(t)
		o := mustCreate(t, e, crossChainParams())
		clock.Advance(90 * time.Minute)

		require.NoError(t, e.Withdraw(ctx, o.ID, "bob", testSecret))

		require.Len(t, transport.requests, 1)
		req := transport.requests[0]
		assert.Equal(t, "channel-0", req.Channel)
		assert.Equal(t, "carol", req.Recipient)
		assert.True(t, req.Amount.Amount.Equal(sdkmath.NewInt(9950)))

		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusPendingAck, got.Status)
		assert.Equal(t, uint64(1), got.CrossChain.PacketSequence)
		// nothing leaves escrow yet; the fee waits for the ack
		assert.True(t, bank.paid("bob").IsZero())
		assert.True(t, bank.paid("treasury").IsZero())

		pending := e.PendingTransfers()
		require.Len(t, pending, 1)
		assert.Equal(t, o.ID, pending[0].OrderID)
	})

	t.Run("pending ack blocks further activity", func(t *testing.T) {
		e, _, _, clock := crossChainEngine(t)
		o := mustCreate(t, e, crossChainParams())
		clock.Advance(90 * time.Minute)
		require.NoError(t, e.Withdraw(ctx, o.ID, "bob", testSecret))

		err := e.Withdraw(ctx, o.ID, "bob", testSecret)
		require.ErrorIs(t, err, types.ErrPendingAck)
		err = e.Cancel(ctx, o.ID, "alice")
		require.ErrorIs(t, err, types.ErrPendingAck)
	})

	t.Run("inactive chain rejected at creation", func(t *testing.T) {
		e, _, _, _ := crossChainEngine(t)
		require.NoError(t, e.UpsertChain("owner", ChainConfig{
			ChainID: 9, Name: "paused", Channel: "channel-1", Active: false,
		}))
		p := crossChainParams()
		p.CrossChain.DstChainID = 9
		_, err := e.CreateOrder(ctx, p)
		require.ErrorIs(t, err, types.ErrChainNotSupported)
	})

	t.Run("chain fee multiplier is added", func(t *testing.T) {
		e, _, transport, clock := crossChainEngine(t)
		require.NoError(t, e.UpsertChain("owner", ChainConfig{
			ChainID: 7, Name: "hub", Channel: "channel-0", Active: true, FeeMultiplierBps: 25,
		}))
		o := mustCreate(t, e, crossChainParams())
		clock.Advance(90 * time.Minute)
		require.NoError(t, e.Withdraw(ctx, o.ID, "bob", testSecret))

		// 50 bps base + 25 bps chain multiplier on 10000
		assert.True(t, transport.requests[0].Amount.Amount.Equal(sdkmath.NewInt(9925)))
	})

	t.Run("transport failure leaves the order open", func(t *testing.T) {
		e, _, transport, clock := crossChainEngine(t)
		o := mustCreate(t, e, crossChainParams())
		clock.Advance(90 * time.Minute)
		transport.err = assert.AnError

		err := e.Withdraw(ctx, o.ID, "bob", testSecret)
		require.Error(t, err)
		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusOpen, got.Status)
	})

	t.Run("no transport configured", func(t *testing.T) {
		params := DefaultParams()
		params.Owner = "owner"
		clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
		e := New(params, &fakeBank{}, zap.NewNop(), WithClock(clock.Now))
		require.NoError(t, e.UpsertChain("owner", ChainConfig{
			ChainID: 7, Channel: "channel-0", Active: true,
		}))
		o := mustCreate(t, e, crossChainParams())
		clock.Advance(90 * time.Minute)
		err := e.Withdraw(ctx, o.ID, "bob", testSecret)
		require.ErrorIs(t, err, types.ErrTransportUnavailable)
	})
}

func TestAckSettlement(t *testing.T) {
	ctx := context.Background()

	pendingOrder := func(t *testing.T) (*Engine, *fakeBank, *Order) {
		e, bank, _, clock := crossChainEngine(t)
		o := mustCreate(t, e, crossChainParams())
		clock.Advance(90 * time.Minute)
		require.NoError(t, e.Withdraw(ctx, o.ID, "bob", testSecret))
		return e, bank, o
	}

	t.Run("successful ack completes the order and releases the fee", func(t *testing.T) {
		e, bank, o := pendingOrder(t)
		require.NoError(t, e.AckSettlement(ctx, 1, true))

		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusCompleted, got.Status)
		assert.True(t, got.Remaining.IsZero())
		assert.True(t, bank.paid("treasury").Equal(sdkmath.NewInt(50)))
		assert.Empty(t, e.PendingTransfers())
	})

	t.Run("failed ack marks the order failed and refundable", func(t *testing.T) {
		e, bank, o := pendingOrder(t)
		require.NoError(t, e.AckSettlement(ctx, 1, false))

		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusFailed, got.Status)
		// the withheld fee stays in escrow so the sender is made whole
		assert.True(t, bank.paid("treasury").IsZero())

		// only the sender may reclaim, stage notwithstanding
		err := e.Cancel(ctx, o.ID, "mallory")
		require.ErrorIs(t, err, types.ErrUnauthorized)
		require.NoError(t, e.Cancel(ctx, o.ID, "alice"))
		assert.True(t, bank.paid("alice").Equal(sdkmath.NewInt(10000)))

		got, _ = e.GetOrder(o.ID)
		assert.Equal(t, StatusCancelled, got.Status)
	})

	t.Run("timeout behaves like a failed ack", func(t *testing.T) {
		e, _, o := pendingOrder(t)
		require.NoError(t, e.TimeoutSettlement(ctx, 1))
		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusFailed, got.Status)
	})

	t.Run("duplicate and unknown acks are no-ops", func(t *testing.T) {
		e, bank, o := pendingOrder(t)
		require.NoError(t, e.AckSettlement(ctx, 1, true))
		require.NoError(t, e.AckSettlement(ctx, 1, false))
		require.NoError(t, e.AckSettlement(ctx, 1, true))
		require.NoError(t, e.AckSettlement(ctx, 99, true))

		got, _ := e.GetOrder(o.ID)
		assert.Equal(t, StatusCompleted, got.Status)
		// the fee is released exactly once
		assert.True(t, bank.paid("treasury").Equal(sdkmath.NewInt(50)))
	})
}
