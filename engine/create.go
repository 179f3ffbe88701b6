package engine

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

// CreateOrderParams carries the immutable core terms of a new order. Funds
// are escrowed by the host ledger before the call reaches the engine.
type CreateOrderParams struct {
	Sender   string
	Receiver string
	Amount   sdk.Coin

	// Hashlock is the hex-encoded SHA-256 digest the secret must preimage.
	Hashlock string

	// Taker optionally reserves the taker-exclusive window for a specific
	// counterparty. Defaults to the receiver.
	Taker     string
	Whitelist []string

	AllowPartialFills bool
	// MinFill floors each partial fill. Nil or zero defaults to a tenth of
	// the total.
	MinFill sdkmath.Int

	RequireSafetyDeposit bool

	// FeeBps overrides the protocol fee for this order; zero keeps the
	// protocol default.
	FeeBps uint32

	// Stages selects the multi-stage shape. When nil, Timelock sets a
	// single expiry: the receiver settles before it, the sender reclaims
	// after it.
	Stages   *StageDurations
	Timelock time.Duration

	// CrossChain marks the settlement leg as remote. The destination chain
	// must be registered and active.
	CrossChain *CrossChainLeg
}

// CreateOrder escrows a new order and returns its record. Core terms are
// fixed here and never change afterwards.
func (e *Engine) CreateOrder(ctx context.Context, p CreateOrderParams) (*Order, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	if !p.Amount.IsValid() || p.Amount.IsZero() {
		return nil, types.ErrInvalidAmount
	}
	if err := ValidateHashlock(p.Hashlock); err != nil {
		return nil, err
	}
	if _, exists := e.book.byHashlock[p.Hashlock]; exists {
		return nil, types.ErrDuplicateHashlock
	}

	now := e.now()

	var tl Timelocks
	if p.Stages != nil {
		built, err := p.Stages.Build(now)
		if err != nil {
			return nil, err
		}
		tl = built
	} else {
		tl = SingleTimelock(now, now.Add(p.Timelock))
	}
	total := tl.TotalDuration(now)
	if total < e.params.MinTimelock || total > e.params.MaxTimelock {
		return nil, errorsmod.Wrapf(types.ErrInvalidTimelock,
			"duration %s not in [%s, %s]", total, e.params.MinTimelock, e.params.MaxTimelock)
	}

	minFill := p.Amount
	if p.AllowPartialFills {
		amt := p.MinFill
		if amt.IsNil() || amt.IsZero() {
			amt = p.Amount.Amount.QuoRaw(defaultMinFillDivisor)
		}
		if !amt.IsPositive() || amt.GT(p.Amount.Amount) {
			return nil, types.ErrInvalidMinFill
		}
		minFill = sdk.NewCoin(p.Amount.Denom, amt)
	}

	if p.CrossChain != nil {
		chain, ok := e.chains.Get(p.CrossChain.DstChainID)
		if !ok || !chain.Active {
			return nil, types.ErrChainNotSupported
		}
	}

	deposit := sdk.NewCoin(p.Amount.Denom, sdkmath.ZeroInt())
	if p.RequireSafetyDeposit {
		deposit = sdk.NewCoin(p.Amount.Denom, p.Amount.Amount.QuoRaw(safetyDepositDivisor))
	}

	feeBps := p.FeeBps
	if feeBps == 0 {
		feeBps = e.params.ProtocolFeeBps
	}

	taker := p.Taker
	if taker == "" {
		taker = p.Receiver
	}

	o := &Order{
		ID:                e.book.issueOrderID(),
		Sender:            p.Sender,
		Receiver:          p.Receiver,
		Taker:             taker,
		Whitelist:         append([]string(nil), p.Whitelist...),
		Total:             p.Amount,
		Remaining:         p.Amount,
		MinFill:           minFill,
		SafetyDeposit:     deposit,
		FeeBps:            feeBps,
		Hashlock:          p.Hashlock,
		Timelocks:         tl,
		AllowPartialFills: p.AllowPartialFills,
		Status:            StatusOpen,
		Stage:             StageAt(now, tl),
		CreatedAt:         now,
	}
	if p.CrossChain != nil {
		leg := *p.CrossChain
		leg.PacketSequence = 0
		o.CrossChain = &leg
	}

	e.book.insertOrder(o)

	e.logger.Info("order created",
		zap.String("id", o.ID),
		zap.String("sender", o.Sender),
		zap.String("receiver", o.Receiver),
		zap.String("amount", o.Total.String()),
		zap.Bool("partial_fills", o.AllowPartialFills),
		zap.Bool("cross_chain", o.CrossChain != nil))

	return o.clone(), nil
}
