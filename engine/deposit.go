package engine

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

// PostSafetyDeposit records resolver collateral against an order that
// requires it. The deposit must cover the order's required amount and, like
// the escrow itself, is moved by the host ledger before the call.
func (e *Engine) PostSafetyDeposit(ctx context.Context, orderID, depositor string, amount sdk.Coin) (*SafetyDeposit, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	o, ok := e.book.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		if o.Status == StatusCancelled {
			return nil, types.ErrAlreadyCancelled
		}
		return nil, types.ErrAlreadyCompleted
	}
	if o.SafetyDeposit.IsZero() {
		return nil, types.ErrSafetyDepositUnused
	}
	if !amount.IsValid() || amount.Denom != o.SafetyDeposit.Denom || amount.IsLT(o.SafetyDeposit) {
		return nil, errorsmod.Wrapf(types.ErrInsufficientDeposit,
			"need at least %s", o.SafetyDeposit)
	}

	d := &SafetyDeposit{
		ID:        e.book.issueDepositID(),
		OrderID:   o.ID,
		Depositor: depositor,
		Amount:    amount,
		CreatedAt: e.now(),
	}
	e.book.deposits[d.ID] = d

	e.logger.Info("safety deposit posted",
		zap.String("order_id", o.ID),
		zap.String("deposit_id", d.ID),
		zap.String("depositor", depositor),
		zap.String("amount", amount.String()))
	return d.cloneDeposit(), nil
}

// ClaimSafetyDeposit returns collateral to its depositor once the order has
// settled one way or the other. Deposits on cancelled orders are returned
// automatically by Cancel and cannot be claimed twice.
func (e *Engine) ClaimSafetyDeposit(ctx context.Context, depositID, claimer string) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	d, ok := e.book.deposits[depositID]
	if !ok {
		return types.ErrDepositNotFound
	}
	if claimer != d.Depositor {
		return types.ErrUnauthorized
	}
	o, ok := e.book.orders[d.OrderID]
	if ok && !o.Status.Terminal() {
		return types.ErrOrderActive
	}

	if err := e.bank.Send(ctx, Payment{Recipient: d.Depositor, Amount: d.Amount}); err != nil {
		return errorsmod.Wrapf(err, "deposit return for %s", d.ID)
	}
	delete(e.book.deposits, d.ID)

	e.logger.Info("safety deposit claimed",
		zap.String("deposit_id", d.ID),
		zap.String("depositor", d.Depositor),
		zap.String("amount", d.Amount.String()))
	return nil
}

// GetSafetyDeposit returns a copy of one deposit record.
func (e *Engine) GetSafetyDeposit(depositID string) (*SafetyDeposit, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	d, ok := e.book.deposits[depositID]
	if !ok {
		return nil, types.ErrDepositNotFound
	}
	return d.cloneDeposit(), nil
}

// OrderDeposits lists the outstanding deposits posted against an order.
func (e *Engine) OrderDeposits(orderID string) []*SafetyDeposit {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	ds := e.book.depositsFor(orderID)
	out := make([]*SafetyDeposit, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.cloneDeposit())
	}
	return out
}

func (d *SafetyDeposit) cloneDeposit() *SafetyDeposit {
	c := *d
	return &c
}
