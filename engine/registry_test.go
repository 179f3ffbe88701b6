package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverRegistry(t *testing.T) {
	r := NewResolverRegistry()
	r.Set(ResolverConfig{Address: "low", Priority: 1, Enabled: true})
	r.Set(ResolverConfig{Address: "high", Priority: 10, Enabled: true})
	r.Set(ResolverConfig{Address: "disabled", Priority: 5, Enabled: false})

	assert.True(t, r.IsEnabled("high"))
	assert.False(t, r.IsEnabled("disabled"))
	assert.False(t, r.IsEnabled("unknown"))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "high", list[0].Address)
	assert.Equal(t, "disabled", list[1].Address)
	assert.Equal(t, "low", list[2].Address)

	r.Remove("high")
	_, ok := r.Get("high")
	assert.False(t, ok)
}

func TestChainRegistry(t *testing.T) {
	r := NewChainRegistry()
	r.Upsert(ChainConfig{ChainID: 2, Name: "beta", Channel: "channel-1", Active: true})
	r.Upsert(ChainConfig{ChainID: 1, Name: "alpha", Channel: "channel-0", Active: true})

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint32(1), list[0].ChainID)

	r.Upsert(ChainConfig{ChainID: 1, Name: "alpha", Channel: "channel-0", Active: false})
	cfg, ok := r.Get(1)
	require.True(t, ok)
	assert.False(t, cfg.Active)

	r.Remove(2)
	_, ok = r.Get(2)
	assert.False(t, ok)
}
