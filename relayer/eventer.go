package relayer

import (
	"context"
	"fmt"
	"strconv"

	tmtypes "github.com/tendermint/tendermint/rpc/core/types"
	"go.uber.org/zap"

	"github.com/dymensionxyz/cosmosclient/cosmosclient"
)

// acker is the slice of the engine the eventer drives.
type acker interface {
	AckSettlement(ctx context.Context, sequence uint64, success bool) error
	TimeoutSettlement(ctx context.Context, sequence uint64) error
}

// Eventer watches the chain for packet acknowledgements and timeouts and
// feeds them to the engine. Duplicate deliveries are harmless: the engine
// ignores sequences it no longer tracks.
type Eventer struct {
	client       cosmosclient.Client
	engine       acker
	logger       *zap.Logger
	subscriberID string
}

func NewEventer(c cosmosclient.Client, subscriberID string, engine acker, logger *zap.Logger) *Eventer {
	return &Eventer{
		client:       c,
		engine:       engine,
		logger:       logger.With(zap.String("module", "ack-eventer")),
		subscriberID: subscriberID,
	}
}

func (e *Eventer) Start(ctx context.Context) error {
	if err := e.client.RPC.Start(); err != nil {
		return fmt.Errorf("start rpc client: %w", err)
	}

	if err := e.subscribeToAcks(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to acknowledgements: %w", err)
	}

	if err := e.subscribeToTimeouts(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to timeouts: %w", err)
	}

	return nil
}

func (e *Eventer) subscribeToAcks(ctx context.Context) error {
	const query = "acknowledge_packet.packet_src_port='transfer'"

	resCh, err := e.client.WSEvents.Subscribe(ctx, e.subscriberID+"-acks", query)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case res := <-resCh:
				e.handleAcks(ctx, res)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (e *Eventer) subscribeToTimeouts(ctx context.Context) error {
	const query = "timeout_packet.packet_src_port='transfer'"

	resCh, err := e.client.WSEvents.Subscribe(ctx, e.subscriberID+"-timeouts", query)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case res := <-resCh:
				e.handleTimeouts(ctx, res)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (e *Eventer) handleAcks(ctx context.Context, res tmtypes.ResultEvent) {
	seqs := res.Events["acknowledge_packet.packet_sequence"]
	// the transfer module reports the application-level outcome separately
	results := res.Events["fungible_token_packet.success"]

	for i, raw := range seqs {
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			e.logger.Error("failed to parse packet sequence", zap.Error(err))
			continue
		}

		// without the outcome attribute we cannot tell success from failure;
		// leave the order pending for the timeout watcher rather than guess
		if i >= len(results) {
			e.logger.Warn("acknowledgement missing outcome attribute",
				zap.Uint64("sequence", seq))
			continue
		}
		success := results[i] == "true"

		if err := e.engine.AckSettlement(ctx, seq, success); err != nil {
			e.logger.Error("failed to apply acknowledgement",
				zap.Uint64("sequence", seq), zap.Error(err))
		}
	}
}

func (e *Eventer) handleTimeouts(ctx context.Context, res tmtypes.ResultEvent) {
	for _, raw := range res.Events["timeout_packet.packet_sequence"] {
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			e.logger.Error("failed to parse packet sequence", zap.Error(err))
			continue
		}

		if err := e.engine.TimeoutSettlement(ctx, seq); err != nil {
			e.logger.Error("failed to apply timeout",
				zap.Uint64("sequence", seq), zap.Error(err))
		}
	}
}
