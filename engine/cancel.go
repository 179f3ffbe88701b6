package engine

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

// Cancel refunds an order's escrow to the sender. Whoever triggers it, the
// funds always go back to the sender: pending fill commitments are released,
// outstanding safety deposits return to their depositors, and the whole
// batch moves atomically. Failed cross-chain orders are refundable by the
// sender regardless of stage.
func (e *Engine) Cancel(ctx context.Context, orderID, caller string) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	o, ok := e.book.orders[orderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	switch o.Status {
	case StatusCompleted:
		return types.ErrAlreadyCompleted
	case StatusCancelled:
		return types.ErrAlreadyCancelled
	case StatusPendingAck:
		return types.ErrPendingAck
	}

	if o.Status == StatusFailed {
		if caller != o.Sender {
			return errorsmod.Wrap(types.ErrUnauthorized, "failed orders are refundable by the sender only")
		}
	} else {
		stage := e.refreshStage(o)
		if !stage.Cancellation() {
			return types.ErrTimelockNotExpired
		}
		if !e.canCancelAtStage(o, stage, caller) {
			return errorsmod.Wrapf(types.ErrUnauthorized, "cancel in stage %s", stage)
		}
	}

	// release pending fill commitments so the full escrow goes home
	refund := o.Remaining
	var pending []*Fill
	for _, id := range o.FillIDs {
		if f, ok := e.book.fills[id]; ok && f.Status == FillPending {
			refund = refund.Add(f.Amount)
			pending = append(pending, f)
		}
	}

	var payments []Payment
	if refund.IsPositive() {
		payments = append(payments, Payment{Recipient: o.Sender, Amount: refund})
	}
	deposits := e.book.depositsFor(o.ID)
	for _, d := range deposits {
		payments = append(payments, Payment{Recipient: d.Depositor, Amount: d.Amount})
	}
	if len(payments) > 0 {
		if err := e.bank.Send(ctx, payments...); err != nil {
			return errorsmod.Wrapf(err, "refund transfer for %s", o.ID)
		}
	}

	for _, f := range pending {
		f.Status = FillRefunded
	}
	for _, d := range deposits {
		delete(e.book.deposits, d.ID)
	}
	o.Status = StatusCancelled
	o.CancelledBy = caller
	o.SettledAt = e.now()
	o.Remaining = refund
	e.book.retire(o.ID)

	e.logger.Info("order cancelled",
		zap.String("id", o.ID),
		zap.String("caller", caller),
		zap.String("refund", refund.String()),
		zap.Int("deposits_returned", len(deposits)))
	return nil
}
