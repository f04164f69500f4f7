package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/boostmart/internal/middleware"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

// ListServices возвращает активные услуги каталога, при необходимости одной категории.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	var category *model.Category
	if v := r.URL.Query().Get("category"); v != "" {
		c, err := model.ParseCategory(v)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		category = &c
	}

	services := h.service.ListServices(r.Context(), category)

	resp := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		resp = append(resp, toServiceResponse(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetService возвращает услугу по идентификатору.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.service.GetService(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get service error", zap.String("service", id))
		return
	}
	h.writeJSON(w, http.StatusOK, toServiceResponse(s))
}

func session(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	}
	return id, ok
}

// GetCart возвращает корзину текущей сессии.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toCartResponse(h.service.Cart(r.Context(), sid)))
}

type addItemRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

// AddCartItem добавляет услугу в корзину. Количество меньше единицы считается единицей.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ServiceID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := h.service.AddToCart(r.Context(), sid, req.ServiceID, req.Quantity)
	if err != nil {
		h.writeError(w, err, "add cart item error", zap.String("service", req.ServiceID))
		return
	}
	h.writeJSON(w, http.StatusOK, toCartResponse(view))
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartItem меняет количество услуги в корзине; ноль удаляет позицию.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := session(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view := h.service.UpdateCartItem(r.Context(), sid, chi.URLParam(r, "serviceID"), req.Quantity)
	h.writeJSON(w, http.StatusOK, toCartResponse(view))
}

// RemoveCartItem удаляет услугу из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := session(w, r)
	if !ok {
		return
	}

	view := h.service.RemoveFromCart(r.Context(), sid, chi.URLParam(r, "serviceID"))
	h.writeJSON(w, http.StatusOK, toCartResponse(view))
}

type checkoutRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// Checkout оформляет заказ из корзины текущей сессии.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sid, ok := session(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.Checkout(r.Context(), sid, principal(r), service.CheckoutInput{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Notes:          strings.TrimSpace(req.Notes),
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		h.writeError(w, err, "checkout error", zap.String("session", sid))
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(o))
}
