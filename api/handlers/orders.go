package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fusionswap/settlement-engine/engine"
	"github.com/fusionswap/settlement-engine/types"
)

type OrderHandler struct {
	engine orderEngine
}

type orderEngine interface {
	GetOrder(orderID string) (*engine.Order, error)
	OrderFills(orderID string) ([]*engine.Fill, error)
	ActiveOrders() []*engine.Order
	UserOrders(addr string) []*engine.Order
	CanWithdraw(orderID, addr string) (bool, error)
	CanCancel(orderID, addr string) (bool, error)
	PendingTransfers() []engine.PendingTransfer
	Stats() engine.Stats
}

func NewOrderHandler(engine orderEngine) OrderHandler {
	return OrderHandler{engine: engine}
}

func (h OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	order, err := h.engine.GetOrder(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, order)
}

func (h OrderHandler) GetOrderFills(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	fills, err := h.engine.OrderFills(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, fills)
}

func (h OrderHandler) ListActiveOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.ActiveOrders())
}

func (h OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		http.Error(w, "missing user address", http.StatusBadRequest)
		return
	}

	writeJSON(w, h.engine.UserOrders(address))
}

func (h OrderHandler) CanWithdraw(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	ok, err := h.engine.CanWithdraw(vars["id"], vars["address"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]bool{"can_withdraw": ok})
}

func (h OrderHandler) CanCancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	ok, err := h.engine.CanCancel(vars["id"], vars["address"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]bool{"can_cancel": ok})
}

func (h OrderHandler) ListPendingTransfers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.PendingTransfers())
}

func (h OrderHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, types.ErrOrderNotFound) || errors.Is(err, types.ErrFillNotFound) {
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
