package engine

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Status is the lifecycle state of an order. Transitions are monotonic
// toward a terminal state; terminal orders are kept for audit and never
// deleted or re-entered.
type Status string

const (
	// StatusOpen is the initial state: escrowed, nothing committed yet.
	StatusOpen Status = "open"
	// StatusPartiallyFilled marks an order with at least one pending fill.
	StatusPartiallyFilled Status = "partially_filled"
	// StatusCommitted marks an order whose remaining amount reached zero.
	// Completion still requires the secret to be revealed.
	StatusCommitted Status = "committed"
	// StatusPendingAck marks a cross-chain order whose destination leg has
	// been initiated but not yet acknowledged.
	StatusPendingAck Status = "pending_ack"

	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further settlement activity is possible.
// Failed orders are terminal for settlement but remain refundable.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Fillable reports whether new fills may still be committed.
func (s Status) Fillable() bool {
	return s == StatusOpen || s == StatusPartiallyFilled
}

// CrossChainLeg describes the destination side of a cross-chain order.
// PacketSequence is zero until the transfer has been initiated.
type CrossChainLeg struct {
	DstChainID     uint32
	DstRecipient   string
	DstToken       string
	PacketSequence uint64
}

// Order is the canonical HTLC record. Core terms are fixed at creation;
// only fills, settlement, cancellation and acknowledgement callbacks
// mutate it.
type Order struct {
	ID       string
	Sender   string
	Receiver string

	// Taker is the designated counterparty with exclusive settlement
	// rights during the taker-exclusive stage. Empty for orders without
	// a reserved taker window.
	Taker     string
	Whitelist []string

	Total         sdk.Coin
	Remaining     sdk.Coin
	MinFill       sdk.Coin
	SafetyDeposit sdk.Coin
	FeeBps        uint32

	// Hashlock is the hex-encoded SHA-256 digest committed at creation.
	// Write-once. Secret stays nil until a valid withdrawal reveals it.
	Hashlock string
	Secret   []byte

	Timelocks         Timelocks
	AllowPartialFills bool

	Status Status
	// Stage is the last computed resolution stage, refreshed whenever the
	// order is read so authorization checks observe a consistent value.
	Stage Stage

	FillIDs    []string
	CrossChain *CrossChainLeg

	CreatedAt   time.Time
	SettledAt   time.Time
	WithdrawnBy string
	CancelledBy string
}

// FilledAmount is the committed portion of the order. The invariant
// FilledAmount + Remaining == Total holds after every operation.
func (o *Order) FilledAmount() sdk.Coin {
	return o.Total.Sub(o.Remaining)
}

func (o *Order) isWhitelisted(addr string) bool {
	for _, w := range o.Whitelist {
		if w == addr {
			return true
		}
	}
	return false
}

// clone returns a deep copy so callers can never mutate the canonical
// record behind the engine's back.
func (o *Order) clone() *Order {
	c := *o
	c.Whitelist = append([]string(nil), o.Whitelist...)
	c.FillIDs = append([]string(nil), o.FillIDs...)
	c.Secret = append([]byte(nil), o.Secret...)
	if o.CrossChain != nil {
		leg := *o.CrossChain
		c.CrossChain = &leg
	}
	return &c
}

// FillStatus tracks the lifecycle of a single partial fill.
type FillStatus string

const (
	FillPending   FillStatus = "pending"
	FillCompleted FillStatus = "completed"
	FillRefunded  FillStatus = "refunded"
)

// Fill is one filler's commitment against an order. It is mutated only by
// the withdraw/refund of that fill and never deleted while its order exists.
type Fill struct {
	ID      string
	OrderID string
	Filler  string
	Amount  sdk.Coin

	// Hashlock is set only under the per-fill secret policy; otherwise the
	// parent order's hashlock gates the fill.
	Hashlock string
	Secret   []byte

	Status    FillStatus
	CreatedAt time.Time
}

func (f *Fill) clone() *Fill {
	c := *f
	c.Secret = append([]byte(nil), f.Secret...)
	return &c
}

// SafetyDeposit is resolver collateral posted against an order. It is
// removed on claim or returned wholesale when the order is cancelled.
type SafetyDeposit struct {
	ID        string
	OrderID   string
	Depositor string
	Amount    sdk.Coin
	CreatedAt time.Time
}
