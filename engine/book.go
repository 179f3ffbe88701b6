package engine

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
)

// orderBook is the canonical in-memory store: orders, fills and deposits
// keyed by id, a hashlock uniqueness index, an active-order index with
// direct removal, and monotonic id sequences issued per creation call.
//
// One mutex serializes every public operation; the engine never holds it
// across a Bank or Transport call that has already succeeded or failed --
// each op acquires it once and runs to completion.
type orderBook struct {
	mu sync.Mutex

	orders   map[string]*Order
	fills    map[string]*Fill
	deposits map[string]*SafetyDeposit

	byHashlock map[string]string
	active     map[string]struct{}
	byUser     map[string][]string

	// pending cross-chain transfers keyed by packet sequence
	transfers map[uint64]*PendingTransfer

	nextOrderID   uint64
	nextFillID    uint64
	nextDepositID uint64

	totalVolume   sdkmath.Int
	ordersCreated uint64
}

func newOrderBook() *orderBook {
	return &orderBook{
		orders:        make(map[string]*Order),
		fills:         make(map[string]*Fill),
		deposits:      make(map[string]*SafetyDeposit),
		byHashlock:    make(map[string]string),
		active:        make(map[string]struct{}),
		byUser:        make(map[string][]string),
		transfers:     make(map[uint64]*PendingTransfer),
		nextOrderID:   1,
		nextFillID:    1,
		nextDepositID: 1,
		totalVolume:   sdkmath.ZeroInt(),
	}
}

func (b *orderBook) issueOrderID() string {
	id := fmt.Sprintf("order_%d", b.nextOrderID)
	b.nextOrderID++
	return id
}

func (b *orderBook) issueFillID() string {
	id := fmt.Sprintf("fill_%d", b.nextFillID)
	b.nextFillID++
	return id
}

func (b *orderBook) issueDepositID() string {
	id := fmt.Sprintf("deposit_%d", b.nextDepositID)
	b.nextDepositID++
	return id
}

func (b *orderBook) insertOrder(o *Order) {
	b.orders[o.ID] = o
	b.byHashlock[o.Hashlock] = o.ID
	b.active[o.ID] = struct{}{}
	b.byUser[o.Sender] = append(b.byUser[o.Sender], o.ID)
	if o.Receiver != o.Sender {
		b.byUser[o.Receiver] = append(b.byUser[o.Receiver], o.ID)
	}
	b.totalVolume = b.totalVolume.Add(o.Total.Amount)
	b.ordersCreated++
}

// retire drops an order from the active index. The record itself is kept
// forever for audit and queries.
func (b *orderBook) retire(id string) {
	delete(b.active, id)
}

// depositsFor returns the outstanding deposits posted against an order.
func (b *orderBook) depositsFor(orderID string) []*SafetyDeposit {
	var out []*SafetyDeposit
	for _, d := range b.deposits {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out
}
