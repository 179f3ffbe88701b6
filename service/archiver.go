package service

import (
	"context"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/engine"
	"github.com/fusionswap/settlement-engine/store"
)

type archiveStore interface {
	SaveManyOrders(ctx context.Context, orders []*store.Order) error
	SaveFill(ctx context.Context, fill *store.Fill) error
}

// archiver periodically snapshots the engine's records into the store so
// they survive restarts and serve historical queries.
type archiver struct {
	engine   *engine.Engine
	store    archiveStore
	interval time.Duration
	logger   *zap.Logger
}

func newArchiver(eng *engine.Engine, s archiveStore, interval time.Duration, logger *zap.Logger) *archiver {
	return &archiver{
		engine:   eng,
		store:    s,
		interval: interval,
		logger:   logger.With(zap.String("module", "archiver")),
	}
}

func (a *archiver) start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := a.archive(ctx); err != nil {
					a.logger.Error("failed to archive records", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (a *archiver) archive(ctx context.Context) error {
	orders := a.engine.Orders()
	records := make([]*store.Order, 0, len(orders))
	for _, o := range orders {
		records = append(records, orderRecord(o))
	}
	if err := a.store.SaveManyOrders(ctx, records); err != nil {
		return err
	}

	for _, f := range a.engine.Fills() {
		if err := a.store.SaveFill(ctx, fillRecord(f)); err != nil {
			return err
		}
	}

	a.logger.Debug("records archived", zap.Int("orders", len(records)))
	return nil
}

func orderRecord(o *engine.Order) *store.Order {
	rec := &store.Order{
		ID:          o.ID,
		Sender:      o.Sender,
		Receiver:    o.Receiver,
		Hashlock:    o.Hashlock,
		Secret:      hex.EncodeToString(o.Secret),
		Total:       o.Total.String(),
		Remaining:   o.Remaining.String(),
		Status:      string(o.Status),
		Stage:       o.Stage.String(),
		WithdrawnBy: o.WithdrawnBy,
		CancelledBy: o.CancelledBy,
		CreatedAt:   o.CreatedAt.Unix(),
	}
	if o.CrossChain != nil {
		rec.CrossChain = true
		rec.DstChainID = o.CrossChain.DstChainID
	}
	if !o.SettledAt.IsZero() {
		rec.SettledAt = o.SettledAt.Unix()
	}
	return rec
}

func fillRecord(f *engine.Fill) *store.Fill {
	return &store.Fill{
		ID:        f.ID,
		OrderID:   f.OrderID,
		Filler:    f.Filler,
		Amount:    f.Amount.String(),
		Status:    string(f.Status),
		CreatedAt: f.CreatedAt.Unix(),
	}
}
