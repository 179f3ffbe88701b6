package engine

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

// settlementFee computes the fee charged against an order's total for a
// given settler: the order's basis points, minus any resolver discount,
// plus the destination chain's multiplier for cross-chain legs. Division
// truncates toward zero.
func (e *Engine) settlementFee(o *Order, settler string) sdkmath.Int {
	bps := int64(o.FeeBps)
	if cfg, ok := e.resolvers.Get(settler); ok && cfg.Enabled {
		if d := int64(cfg.FeeDiscountBps); d < bps {
			bps -= d
		} else {
			bps = 0
		}
	}
	fee := o.Total.Amount.MulRaw(bps).QuoRaw(feeDenominator)
	if o.CrossChain != nil {
		if chain, ok := e.chains.Get(o.CrossChain.DstChainID); ok {
			fee = fee.Add(o.Total.Amount.MulRaw(int64(chain.FeeMultiplierBps)).QuoRaw(feeDenominator))
		}
	}
	return fee
}

// checkSettleable rejects withdrawals against orders whose status already
// decided the outcome.
func checkSettleable(o *Order) error {
	switch o.Status {
	case StatusCompleted:
		return types.ErrAlreadyCompleted
	case StatusCancelled:
		return types.ErrAlreadyCancelled
	case StatusFailed:
		return types.ErrOrderFailed
	case StatusPendingAck:
		return types.ErrPendingAck
	}
	return nil
}

// Withdraw settles a whole order by revealing the secret. The payout, net
// of the fee, goes to the receiver; the fee goes to the settler, or to the
// treasury when the receiver settles for themselves. Cross-chain orders do
// not complete here: the destination leg is initiated and the order waits
// for its acknowledgement.
func (e *Engine) Withdraw(ctx context.Context, orderID, withdrawer string, secret []byte) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	o, ok := e.book.orders[orderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	if err := checkSettleable(o); err != nil {
		return err
	}
	if o.AllowPartialFills {
		return types.ErrPartialsOnly
	}

	stage := e.refreshStage(o)
	if stage == StagePending {
		return types.ErrNotFinalized
	}
	if stage.Cancellation() {
		return types.ErrTimelockExpired
	}
	if !VerifySecret(secret, o.Hashlock) {
		return types.ErrInvalidSecret
	}
	if !e.canWithdrawAtStage(o, stage, withdrawer) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "withdraw in stage %s", stage)
	}

	fee := e.settlementFee(o, withdrawer)
	feeRecipient := withdrawer
	if withdrawer == o.Receiver {
		feeRecipient = e.params.Treasury
	}
	if feeRecipient == "" {
		fee = sdkmath.ZeroInt()
	}
	payout := sdk.NewCoin(o.Total.Denom, o.Total.Amount.Sub(fee))

	now := e.now()

	if o.CrossChain != nil {
		return e.initiateRemoteLeg(ctx, o, withdrawer, secret, payout, feeRecipient, fee)
	}

	payments := []Payment{{Recipient: o.Receiver, Amount: payout}}
	if fee.IsPositive() {
		payments = append(payments, Payment{
			Recipient: feeRecipient,
			Amount:    sdk.NewCoin(o.Total.Denom, fee),
		})
	}
	if err := e.bank.Send(ctx, payments...); err != nil {
		return errorsmod.Wrapf(err, "settlement transfer for %s", o.ID)
	}

	o.Status = StatusCompleted
	o.Stage = stage
	o.Secret = append([]byte(nil), secret...)
	o.WithdrawnBy = withdrawer
	o.SettledAt = now
	o.Remaining = sdk.NewCoin(o.Total.Denom, sdkmath.ZeroInt())
	e.book.retire(o.ID)

	e.logger.Info("order settled",
		zap.String("id", o.ID),
		zap.String("withdrawer", withdrawer),
		zap.String("stage", stage.String()),
		zap.String("payout", payout.String()),
		zap.String("fee", fee.String()))
	return nil
}

// initiateRemoteLeg sends the destination-chain transfer and parks the order
// in pending-ack. The fee is withheld in escrow and paid only when the leg
// acknowledges successfully: a failed or timed-out leg refunds the sender in
// full, fee included. Callers must hold the book lock.
func (e *Engine) initiateRemoteLeg(
	ctx context.Context,
	o *Order,
	withdrawer string,
	secret []byte,
	payout sdk.Coin,
	feeRecipient string,
	fee sdkmath.Int,
) error {
	if e.transport == nil {
		return types.ErrTransportUnavailable
	}
	chain, ok := e.chains.Get(o.CrossChain.DstChainID)
	if !ok || !chain.Active {
		return types.ErrChainNotSupported
	}

	now := e.now()
	req := TransferRequest{
		OrderID:   o.ID,
		Channel:   chain.Channel,
		Recipient: o.CrossChain.DstRecipient,
		Amount:    payout,
		Timeout:   now.Add(e.params.TransferTimeout),
	}
	seq, err := e.transport.SendTransfer(ctx, req)
	if err != nil {
		return errorsmod.Wrapf(err, "destination leg for %s", o.ID)
	}

	o.Status = StatusPendingAck
	o.Secret = append([]byte(nil), secret...)
	o.WithdrawnBy = withdrawer
	o.CrossChain.PacketSequence = seq
	e.book.transfers[seq] = &PendingTransfer{
		OrderID:      o.ID,
		Sequence:     seq,
		Channel:      req.Channel,
		Recipient:    req.Recipient,
		Amount:       req.Amount,
		FeeRecipient: feeRecipient,
		Fee:          sdk.NewCoin(o.Total.Denom, fee),
		Timeout:      req.Timeout,
	}

	e.logger.Info("destination leg initiated",
		zap.String("id", o.ID),
		zap.Uint64("sequence", seq),
		zap.String("channel", req.Channel),
		zap.Uint32("dst_chain", o.CrossChain.DstChainID))
	return nil
}
