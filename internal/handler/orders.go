package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/boostmart/internal/model"
)

// GetOrders возвращает заказы текущего пользователя, начиная с самых новых.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders := h.service.OrdersForUser(r.Context(), p.ID)
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, toSummaryResponses(orders, model.SenderCustomer))
}

// GetOrder возвращает заказ с перепиской и историей отслеживания.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.service.Order(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, err, "get order error", zap.String("order", id))
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type messageRequest struct {
	Body string `json:"body"`
}

type messageCreatedResponse struct {
	ID string `json:"id"`
}

// PostMessage добавляет сообщение покупателя в переписку по заказу.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msgID, err := h.service.PostCustomerMessage(r.Context(), principal(r), id, req.Body)
	if err != nil {
		h.writeError(w, err, "post message error", zap.String("order", id))
		return
	}
	h.writeJSON(w, http.StatusCreated, messageCreatedResponse{ID: msgID})
}

// MarkMessageRead отмечает сообщение прочитанным.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageID")

	if err := h.service.MarkMessageRead(r.Context(), principal(r), id, messageID); err != nil {
		h.writeError(w, err, "mark message read error", zap.String("order", id), zap.String("message", messageID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
