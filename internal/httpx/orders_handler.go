package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	msgMissingItems  = "Invalid order data. 'items' list is required."
	msgQueueFailed   = "Failed to queue order for processing. Please try again later."
	msgInternalError = "An unexpected server error occurred."
)

type CreateOrderReq struct {
	Items          []orders.LineRequest `json:"items"`
	UserIdentifier string               `json:"user_identifier,omitempty"`
}

type OrdersHandler struct {
	Service *orders.Service
	Log     zerolog.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingItems)
		return
	}

	order, err := h.Service.Place(r.Context(), orders.PlaceRequest{
		Items:          req.Items,
		UserIdentifier: req.UserIdentifier,
	})
	if err != nil {
		if ve, ok := orders.IsValidation(err); ok {
			writeError(w, http.StatusBadRequest, ve.Message)
			return
		}
		if errors.Is(err, orders.ErrQueueingFailed) {
			writeError(w, http.StatusInternalServerError, msgQueueFailed)
			return
		}
		h.Log.Error().Err(err).Msg("place order")
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.Service.Refresh(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}
