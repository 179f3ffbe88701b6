package engine

import (
	"context"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"
)

// PendingTransfer is an in-flight destination leg awaiting acknowledgement,
// keyed by packet sequence. The settler's fee stays in escrow until the leg
// is acknowledged, so a failed leg can refund the sender in full.
type PendingTransfer struct {
	OrderID      string
	Sequence     uint64
	Channel      string
	Recipient    string
	Amount       sdk.Coin
	FeeRecipient string
	Fee          sdk.Coin
	Timeout      time.Time
}

// AckSettlement applies a destination-chain acknowledgement. A successful
// ack releases the withheld fee and completes the order; a failed one marks
// it Failed with the full escrow, fee included, refundable by the sender.
// Unknown sequences are ignored so at-least-once relayer delivery stays safe.
func (e *Engine) AckSettlement(ctx context.Context, sequence uint64, success bool) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	pt, ok := e.book.transfers[sequence]
	if !ok {
		e.logger.Debug("ack for unknown or already-settled sequence",
			zap.Uint64("sequence", sequence))
		return nil
	}
	delete(e.book.transfers, sequence)

	o, ok := e.book.orders[pt.OrderID]
	if !ok || o.Status != StatusPendingAck {
		return nil
	}

	if success {
		if pt.FeeRecipient != "" && !pt.Fee.IsNil() && pt.Fee.IsPositive() {
			// the remote leg already delivered, so completion stands
			// even when the fee payout fails
			if err := e.bank.Send(ctx, Payment{Recipient: pt.FeeRecipient, Amount: pt.Fee}); err != nil {
				e.logger.Error("fee payout failed on acknowledgement",
					zap.String("id", o.ID), zap.Error(err))
			}
		}
		o.Status = StatusCompleted
		o.SettledAt = e.now()
		o.Remaining = sdk.NewCoin(o.Total.Denom, sdkmath.ZeroInt())
	} else {
		o.Status = StatusFailed
	}
	e.book.retire(o.ID)

	e.logger.Info("cross-chain settlement acknowledged",
		zap.String("id", o.ID),
		zap.Uint64("sequence", sequence),
		zap.Bool("success", success))
	return nil
}

// TimeoutSettlement handles a destination leg that expired unacknowledged.
// The order fails the same way a negative ack fails it.
func (e *Engine) TimeoutSettlement(ctx context.Context, sequence uint64) error {
	return e.AckSettlement(ctx, sequence, false)
}

// PendingTransfers lists in-flight destination legs, oldest timeout first.
func (e *Engine) PendingTransfers() []PendingTransfer {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	out := make([]PendingTransfer, 0, len(e.book.transfers))
	for _, pt := range e.book.transfers {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timeout.Before(out[j].Timeout) })
	return out
}
