package engine

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

// CreateFill commits a filler to a slice of an order's remaining amount.
// No funds move at commit time; the payout happens when the fill is
// withdrawn with the secret. Under the per-fill secret policy each fill
// carries its own hashlock.
func (e *Engine) CreateFill(ctx context.Context, orderID, filler string, amount sdkmath.Int, hashlock string) (*Fill, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	o, ok := e.book.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if err := checkSettleable(o); err != nil {
		return nil, err
	}
	if !o.AllowPartialFills {
		return nil, types.ErrPartialsDisabled
	}
	if !o.Status.Fillable() {
		return nil, types.ErrOrderCommitted
	}

	stage := e.refreshStage(o)
	if stage == StagePending {
		return nil, types.ErrNotFinalized
	}
	if stage.Cancellation() {
		return nil, types.ErrTimelockExpired
	}
	if !e.canWithdrawAtStage(o, stage, filler) {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "fill in stage %s", stage)
	}

	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrInvalidAmount
	}
	if amount.GT(o.Remaining.Amount) {
		return nil, types.ErrFillTooLarge
	}
	// a closing fill may take the whole remainder even below the minimum
	if amount.LT(o.MinFill.Amount) && !amount.Equal(o.Remaining.Amount) {
		return nil, types.ErrFillTooSmall
	}

	f := &Fill{
		ID:        e.book.issueFillID(),
		OrderID:   o.ID,
		Filler:    filler,
		Amount:    sdk.NewCoin(o.Total.Denom, amount),
		Status:    FillPending,
		CreatedAt: e.now(),
	}
	if e.params.SecretScope == SecretScopeFill {
		if err := ValidateHashlock(hashlock); err != nil {
			return nil, err
		}
		f.Hashlock = hashlock
	}

	o.Remaining = o.Remaining.Sub(f.Amount)
	o.FillIDs = append(o.FillIDs, f.ID)
	if o.Remaining.IsZero() {
		o.Status = StatusCommitted
	} else {
		o.Status = StatusPartiallyFilled
	}
	e.book.fills[f.ID] = f

	e.logger.Info("fill committed",
		zap.String("order_id", o.ID),
		zap.String("fill_id", f.ID),
		zap.String("filler", filler),
		zap.String("amount", f.Amount.String()),
		zap.String("remaining", o.Remaining.String()))

	return f.clone(), nil
}

// WithdrawFill settles a single pending fill by revealing its secret. Only
// the order's receiver may settle a fill, and the fill amount goes to the
// receiver; fills pay no protocol fee. Once every fill of a fully committed
// order is settled the order completes.
func (e *Engine) WithdrawFill(ctx context.Context, fillID, withdrawer string, secret []byte) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	f, ok := e.book.fills[fillID]
	if !ok {
		return types.ErrFillNotFound
	}
	if f.Status != FillPending {
		return types.ErrFillProcessed
	}
	o, ok := e.book.orders[f.OrderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	switch o.Status {
	case StatusCancelled:
		return types.ErrAlreadyCancelled
	case StatusFailed:
		return types.ErrOrderFailed
	}

	stage := e.refreshStage(o)
	if stage == StagePending {
		return types.ErrNotFinalized
	}
	if stage.Cancellation() {
		return types.ErrTimelockExpired
	}
	hashlock := o.Hashlock
	if f.Hashlock != "" {
		hashlock = f.Hashlock
	}
	if !VerifySecret(secret, hashlock) {
		return types.ErrInvalidSecret
	}
	if withdrawer != o.Receiver {
		return errorsmod.Wrapf(types.ErrUnauthorized, "only the receiver may settle a fill")
	}

	if err := e.bank.Send(ctx, Payment{Recipient: o.Receiver, Amount: f.Amount}); err != nil {
		return errorsmod.Wrapf(err, "fill payout for %s", f.ID)
	}

	f.Status = FillCompleted
	f.Secret = append([]byte(nil), secret...)
	if len(o.Secret) == 0 && f.Hashlock == "" {
		o.Secret = append([]byte(nil), secret...)
	}

	if o.Remaining.IsZero() && e.allFillsSettled(o) {
		o.Status = StatusCompleted
		o.SettledAt = e.now()
		e.book.retire(o.ID)
	}

	e.logger.Info("fill settled",
		zap.String("order_id", o.ID),
		zap.String("fill_id", f.ID),
		zap.String("withdrawer", withdrawer),
		zap.String("amount", f.Amount.String()))
	return nil
}

// RefundFill releases a pending fill's commitment, restoring the order's
// remaining amount. Refunds open only once the order enters a cancellation
// stage; the filler may reclaim their own commitment, anyone else needs the
// stage's cancellation privileges.
func (e *Engine) RefundFill(ctx context.Context, fillID, caller string) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	f, ok := e.book.fills[fillID]
	if !ok {
		return types.ErrFillNotFound
	}
	if f.Status != FillPending {
		return types.ErrFillProcessed
	}
	o, ok := e.book.orders[f.OrderID]
	if !ok {
		return types.ErrOrderNotFound
	}

	stage := e.refreshStage(o)
	if !stage.Cancellation() {
		return types.ErrTimelockNotExpired
	}
	if caller != f.Filler && !e.canCancelAtStage(o, stage, caller) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "refund fill in stage %s", stage)
	}

	f.Status = FillRefunded
	if !o.Status.Terminal() {
		o.Remaining = o.Remaining.Add(f.Amount)
		if o.Remaining.Equal(o.Total) {
			o.Status = StatusOpen
		} else {
			o.Status = StatusPartiallyFilled
		}
	}

	e.logger.Info("fill refunded",
		zap.String("order_id", o.ID),
		zap.String("fill_id", f.ID),
		zap.String("caller", caller))
	return nil
}

// allFillsSettled reports whether no fill of the order is still pending.
// Callers must hold the book lock.
func (e *Engine) allFillsSettled(o *Order) bool {
	for _, id := range o.FillIDs {
		if f, ok := e.book.fills[id]; ok && f.Status == FillPending {
			return false
		}
	}
	return true
}
