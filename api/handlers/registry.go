package handlers

import (
	"net/http"

	"github.com/fusionswap/settlement-engine/engine"
)

type RegistryHandler struct {
	engine registryEngine
}

type registryEngine interface {
	Resolvers() *engine.ResolverRegistry
	Chains() *engine.ChainRegistry
}

func NewRegistryHandler(engine registryEngine) RegistryHandler {
	return RegistryHandler{engine: engine}
}

func (h RegistryHandler) ListResolvers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Resolvers().List())
}

func (h RegistryHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Chains().List())
}
