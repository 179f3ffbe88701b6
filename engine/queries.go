package engine

import (
	"sort"

	sdkmath "cosmossdk.io/math"

	"github.com/fusionswap/settlement-engine/types"
)

// GetOrder returns a copy of an order with its stage refreshed against the
// current time. The recomputed stage is persisted so later authorization
// checks observe the same value.
func (e *Engine) GetOrder(orderID string) (*Order, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	o, ok := e.book.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	e.refreshStage(o)
	return o.clone(), nil
}

// OrderByHashlock looks an order up through the hashlock uniqueness index.
func (e *Engine) OrderByHashlock(hashlock string) (*Order, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	id, ok := e.book.byHashlock[hashlock]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	o := e.book.orders[id]
	e.refreshStage(o)
	return o.clone(), nil
}

// GetFill returns a copy of one fill record.
func (e *Engine) GetFill(fillID string) (*Fill, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	f, ok := e.book.fills[fillID]
	if !ok {
		return nil, types.ErrFillNotFound
	}
	return f.clone(), nil
}

// OrderFills lists an order's fills in commitment order.
func (e *Engine) OrderFills(orderID string) ([]*Fill, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	o, ok := e.book.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	out := make([]*Fill, 0, len(o.FillIDs))
	for _, id := range o.FillIDs {
		if f, ok := e.book.fills[id]; ok {
			out = append(out, f.clone())
		}
	}
	return out, nil
}

// CanWithdraw reports whether addr could settle the order right now,
// assuming they hold the secret. It never mutates funds but does persist
// the refreshed stage.
func (e *Engine) CanWithdraw(orderID, addr string) (bool, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	o, ok := e.book.orders[orderID]
	if !ok {
		return false, types.ErrOrderNotFound
	}
	if o.Status.Terminal() || o.Status == StatusPendingAck {
		return false, nil
	}
	stage := e.refreshStage(o)
	return stage.Settlement() && e.canWithdrawAtStage(o, stage, addr), nil
}

// CanCancel reports whether addr could cancel the order right now. Failed
// orders are cancellable by their sender regardless of stage.
func (e *Engine) CanCancel(orderID, addr string) (bool, error) {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	o, ok := e.book.orders[orderID]
	if !ok {
		return false, types.ErrOrderNotFound
	}
	if o.Status == StatusFailed {
		return addr == o.Sender, nil
	}
	if o.Status.Terminal() || o.Status == StatusPendingAck {
		return false, nil
	}
	stage := e.refreshStage(o)
	return stage.Cancellation() && e.canCancelAtStage(o, stage, addr), nil
}

// ActiveOrders lists non-terminal orders, stage-refreshed, sorted by id.
func (e *Engine) ActiveOrders() []*Order {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	out := make([]*Order, 0, len(e.book.active))
	for id := range e.book.active {
		o := e.book.orders[id]
		e.refreshStage(o)
		out = append(out, o.clone())
	}
	sortOrders(out)
	return out
}

// Orders lists every order the engine has ever accepted.
func (e *Engine) Orders() []*Order {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	out := make([]*Order, 0, len(e.book.orders))
	for _, o := range e.book.orders {
		e.refreshStage(o)
		out = append(out, o.clone())
	}
	sortOrders(out)
	return out
}

// Fills lists every fill across all orders.
func (e *Engine) Fills() []*Fill {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	out := make([]*Fill, 0, len(e.book.fills))
	for _, f := range e.book.fills {
		out = append(out, f.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OrdersByStatus lists orders currently in the given status.
func (e *Engine) OrdersByStatus(status Status) []*Order {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	var out []*Order
	for _, o := range e.book.orders {
		if !o.Status.Terminal() {
			e.refreshStage(o)
		}
		if o.Status == status {
			out = append(out, o.clone())
		}
	}
	sortOrders(out)
	return out
}

// UserOrders lists the orders a user participates in as sender or receiver.
func (e *Engine) UserOrders(addr string) []*Order {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	ids := e.book.byUser[addr]
	out := make([]*Order, 0, len(ids))
	for _, id := range ids {
		o := e.book.orders[id]
		e.refreshStage(o)
		out = append(out, o.clone())
	}
	return out
}

// Stats is a running aggregate over the life of the engine.
type Stats struct {
	OrdersCreated uint64
	OrdersActive  int
	TotalVolume   sdkmath.Int
}

func (e *Engine) Stats() Stats {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	return Stats{
		OrdersCreated: e.book.ordersCreated,
		OrdersActive:  len(e.book.active),
		TotalVolume:   e.book.totalVolume,
	}
}

func sortOrders(orders []*Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}
