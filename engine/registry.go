package engine

import (
	"sort"
	"sync"
)

// ResolverConfig is the global registration of a settlement agent, distinct
// from any per-order whitelist. Priority and fee discount are advisory
// inputs to ranking and fee computation; only Enabled gates authorization.
type ResolverConfig struct {
	Address        string
	Priority       uint32
	FeeDiscountBps uint32
	Enabled        bool
}

// ResolverRegistry tracks global resolver authorization. It is mutated by
// an administrative caller and read by every authorization check, so it
// carries its own lock independent of the order book.
type ResolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[string]ResolverConfig
}

func NewResolverRegistry() *ResolverRegistry {
	return &ResolverRegistry{resolvers: make(map[string]ResolverConfig)}
}

func (r *ResolverRegistry) Set(cfg ResolverConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[cfg.Address] = cfg
}

func (r *ResolverRegistry) Remove(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolvers, addr)
}

func (r *ResolverRegistry) Get(addr string) (ResolverConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.resolvers[addr]
	return cfg, ok
}

// IsEnabled reports whether addr is a registered, enabled global resolver.
func (r *ResolverRegistry) IsEnabled(addr string) bool {
	cfg, ok := r.Get(addr)
	return ok && cfg.Enabled
}

// List returns all registrations ordered by priority (highest first),
// breaking ties by address for a stable order.
func (r *ResolverRegistry) List() []ResolverConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ResolverConfig, 0, len(r.resolvers))
	for _, cfg := range r.resolvers {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// ChainConfig describes a destination ledger reachable over a transfer
// channel. FeeMultiplierBps is added on top of the base protocol fee for
// orders settling onto that chain.
type ChainConfig struct {
	ChainID          uint32
	Name             string
	Channel          string
	Active           bool
	FeeMultiplierBps uint32
}

// ChainRegistry tracks supported destination chains.
type ChainRegistry struct {
	mu     sync.RWMutex
	chains map[uint32]ChainConfig
}

func NewChainRegistry() *ChainRegistry {
	return &ChainRegistry{chains: make(map[uint32]ChainConfig)}
}

func (r *ChainRegistry) Upsert(cfg ChainConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[cfg.ChainID] = cfg
}

func (r *ChainRegistry) Remove(chainID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chains, chainID)
}

func (r *ChainRegistry) Get(chainID uint32) (ChainConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.chains[chainID]
	return cfg, ok
}

func (r *ChainRegistry) List() []ChainConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChainConfig, 0, len(r.chains))
	for _, cfg := range r.chains {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}
