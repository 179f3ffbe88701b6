package engine

import (
	"context"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/types"
)

const (
	// feeDenominator scales basis points: 10000 = 100%.
	feeDenominator = 10000

	defaultMinTimelock = time.Hour
	defaultMaxTimelock = 30 * 24 * time.Hour

	// defaultMinFillDivisor makes the default minimum fill 10% of total.
	defaultMinFillDivisor = 10
	// safetyDepositDivisor makes the required deposit 5% of total.
	safetyDepositDivisor = 20
)

// Payment is one fund movement the engine asks its host ledger to perform.
type Payment struct {
	Recipient string
	Amount    sdk.Coin
}

// Bank moves funds on the host ledger. A single Send call is an atomic
// batch: either every payment lands or none does. The engine performs all
// validation, verification and authorization before calling it, and mutates
// its own state only after it succeeds.
type Bank interface {
	Send(ctx context.Context, payments ...Payment) error
}

// TransferRequest is the destination-chain leg of a cross-chain settlement.
type TransferRequest struct {
	OrderID   string
	Channel   string
	Recipient string
	Amount    sdk.Coin
	Timeout   time.Time
}

// Transport initiates the destination leg and returns the packet sequence
// that later acknowledgement or timeout callbacks will reference. It must
// not block waiting for the remote acknowledgement.
type Transport interface {
	SendTransfer(ctx context.Context, req TransferRequest) (uint64, error)
}

// Params are the deployment-wide knobs of the engine.
type Params struct {
	// Owner may mutate registries and params. Treasury receives protocol
	// fees when the settling party is the receiver itself.
	Owner    string
	Treasury string

	ProtocolFeeBps uint32
	MinTimelock    time.Duration
	MaxTimelock    time.Duration

	// SecretScope picks the per-order (shared) or per-fill secret policy.
	SecretScope SecretScope

	// TransferTimeout bounds how long a cross-chain leg may stay in flight.
	TransferTimeout time.Duration
}

func DefaultParams() Params {
	return Params{
		ProtocolFeeBps:  50,
		MinTimelock:     defaultMinTimelock,
		MaxTimelock:     defaultMaxTimelock,
		SecretScope:     SecretScopeOrder,
		TransferTimeout: 10 * time.Minute,
	}
}

// Engine owns the canonical order records and applies every settlement rule
// to them. Each exported operation runs as a single atomic unit of work;
// fund movement and cross-chain messaging are delegated to the Bank and
// Transport collaborators.
type Engine struct {
	params    Params
	book      *orderBook
	resolvers *ResolverRegistry
	chains    *ChainRegistry

	bank      Bank
	transport Transport

	logger *zap.Logger
	now    func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTransport attaches the cross-chain messaging collaborator. Engines
// without one reject cross-chain orders.
func WithTransport(t Transport) Option {
	return func(e *Engine) { e.transport = t }
}

func New(params Params, bank Bank, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		params:    params,
		book:      newOrderBook(),
		resolvers: NewResolverRegistry(),
		chains:    NewChainRegistry(),
		bank:      bank,
		logger:    logger.With(zap.String("module", "settlement-engine")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the current engine parameters.
func (e *Engine) Params() Params {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	return e.params
}

// SetParams replaces engine parameters. Owner only.
func (e *Engine) SetParams(caller string, params Params) error {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	if caller != e.params.Owner {
		return types.ErrUnauthorized
	}
	e.params = params
	e.logger.Info("params updated", zap.Uint32("protocol_fee_bps", params.ProtocolFeeBps))
	return nil
}

// isOwner reads the owner under the book lock; SetParams may swap it out
// concurrently.
func (e *Engine) isOwner(caller string) bool {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()
	return caller == e.params.Owner
}

// Resolvers exposes the registry for read paths (ranking, queries).
func (e *Engine) Resolvers() *ResolverRegistry { return e.resolvers }

// Chains exposes the chain registry for read paths.
func (e *Engine) Chains() *ChainRegistry { return e.chains }

// SetResolver registers or updates a global resolver. Owner only.
func (e *Engine) SetResolver(caller string, cfg ResolverConfig) error {
	if !e.isOwner(caller) {
		return types.ErrUnauthorized
	}
	e.resolvers.Set(cfg)
	e.logger.Info("resolver registered",
		zap.String("address", cfg.Address),
		zap.Uint32("priority", cfg.Priority),
		zap.Bool("enabled", cfg.Enabled))
	return nil
}

// RemoveResolver deletes a global resolver registration. Owner only.
func (e *Engine) RemoveResolver(caller, addr string) error {
	if !e.isOwner(caller) {
		return types.ErrUnauthorized
	}
	e.resolvers.Remove(addr)
	return nil
}

// UpsertChain adds or updates a destination chain. Owner only.
func (e *Engine) UpsertChain(caller string, cfg ChainConfig) error {
	if !e.isOwner(caller) {
		return types.ErrUnauthorized
	}
	e.chains.Upsert(cfg)
	return nil
}

// RemoveChain deletes a destination chain. Owner only.
func (e *Engine) RemoveChain(caller string, chainID uint32) error {
	if !e.isOwner(caller) {
		return types.ErrUnauthorized
	}
	e.chains.Remove(chainID)
	return nil
}

// refreshStage recomputes and persists the current stage of an order.
// Terminal statuses short-circuit: their stage is frozen at settlement.
// Callers must hold the book lock.
func (e *Engine) refreshStage(o *Order) Stage {
	if o.Status.Terminal() {
		return o.Stage
	}
	o.Stage = StageAt(e.now(), o.Timelocks)
	return o.Stage
}

// canWithdrawAtStage applies the per-stage settlement privilege gradient.
func (e *Engine) canWithdrawAtStage(o *Order, stage Stage, addr string) bool {
	switch stage {
	case StageTakerExclusive:
		return addr == o.Taker
	case StagePrivateResolver:
		return addr == o.Taker || o.isWhitelisted(addr) || e.resolvers.IsEnabled(addr)
	case StagePublicResolver:
		return true
	default:
		return false
	}
}

// canCancelAtStage applies the reversed gradient for cancellation.
func (e *Engine) canCancelAtStage(o *Order, stage Stage, addr string) bool {
	switch stage {
	case StagePrivateCancellation:
		return addr == o.Sender || o.isWhitelisted(addr) || e.resolvers.IsEnabled(addr)
	case StagePublicCancellation:
		return true
	default:
		return false
	}
}
