package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fusionswap/settlement-engine/api/handlers"
)

type Server struct {
	oh         handlers.OrderHandler
	rh         handlers.RegistryHandler
	listenAddr string
	logger     *zap.Logger
}

func NewServer(
	oh handlers.OrderHandler,
	rh handlers.RegistryHandler,
	address string,
	logger *zap.Logger,
) Server {
	return Server{
		oh:         oh,
		rh:         rh,
		listenAddr: address,
		logger:     logger,
	}
}

func (s Server) Start() {
	router := mux.NewRouter()

	// Routes for orders
	router.HandleFunc("/orders/active", s.oh.ListActiveOrders).Methods("GET")
	router.HandleFunc("/orders/{id}", s.oh.GetOrder).Methods("GET")
	router.HandleFunc("/orders/{id}/fills", s.oh.GetOrderFills).Methods("GET")
	router.HandleFunc("/orders/{id}/can_withdraw/{address}", s.oh.CanWithdraw).Methods("GET")
	router.HandleFunc("/orders/{id}/can_cancel/{address}", s.oh.CanCancel).Methods("GET")
	router.HandleFunc("/users/{address}/orders", s.oh.ListUserOrders).Methods("GET")
	router.HandleFunc("/transfers/pending", s.oh.ListPendingTransfers).Methods("GET")
	router.HandleFunc("/stats", s.oh.GetStats).Methods("GET")

	// Routes for registries
	router.HandleFunc("/resolvers", s.rh.ListResolvers).Methods("GET")
	router.HandleFunc("/chains", s.rh.ListChains).Methods("GET")

	// Start server
	s.logger.Info("Starting server", zap.String("address", s.listenAddr))
	s.logger.Fatal("Server failed to start", zap.Error(http.ListenAndServe(s.listenAddr, router)))
}
