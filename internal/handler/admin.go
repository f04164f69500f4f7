package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/boostmart/internal/catalog"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
)

// AdminListOrders возвращает все заказы, при необходимости с одним статусом.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	var f order.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := model.ParseOrderStatus(v)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		f.Status = &status
	}

	orders := h.service.ListOrders(r.Context(), f)
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, toSummaryResponses(orders, model.SenderAdmin))
}

type statusRequest struct {
	Status   string `json:"status"`
	Progress *int   `json:"progress"`
}

// AdminUpdateStatus переводит заказ в новый статус.
func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeError(w, err, "parse status error")
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), id, status, req.Progress); err != nil {
		h.writeError(w, err, "update order status error", zap.String("order", id), zap.String("status", req.Status))
		return
	}
	h.respondOrder(w, r, id)
}

type paymentRequest struct {
	Status string `json:"status"`
}

// AdminUpdatePayment меняет статус оплаты заказа.
func (h *Handler) AdminUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		h.writeError(w, err, "parse payment status error")
		return
	}

	if err := h.service.UpdatePaymentStatus(r.Context(), id, status); err != nil {
		h.writeError(w, err, "update payment status error", zap.String("order", id), zap.String("status", req.Status))
		return
	}
	h.respondOrder(w, r, id)
}

type fulfillerRequest struct {
	Name string `json:"name"`
}

// AdminAssignFulfiller назначает исполнителя заказа.
func (h *Handler) AdminAssignFulfiller(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req fulfillerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.AssignFulfiller(r.Context(), id, req.Name); err != nil {
		h.writeError(w, err, "assign fulfiller error", zap.String("order", id))
		return
	}
	h.respondOrder(w, r, id)
}

type trackingRequest struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// AdminAddTracking добавляет событие в историю отслеживания заказа.
func (h *Handler) AdminAddTracking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req trackingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.AddTrackingEvent(r.Context(), id, req.Status, strings.TrimSpace(req.Description)); err != nil {
		h.writeError(w, err, "add tracking event error", zap.String("order", id))
		return
	}
	h.respondOrder(w, r, id)
}

type staffMessageRequest struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// AdminPostMessage добавляет сообщение администратора или исполнителя. Без from сообщение
// отправляется от имени администратора.
func (h *Handler) AdminPostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req staffMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	from := model.SenderAdmin
	if req.From != "" {
		s, err := model.ParseSender(req.From)
		if err != nil {
			h.writeError(w, err, "parse sender error")
			return
		}
		from = s
	}

	msgID, err := h.service.PostStaffMessage(r.Context(), id, from, req.Body)
	if err != nil {
		h.writeError(w, err, "post staff message error", zap.String("order", id))
		return
	}
	h.writeJSON(w, http.StatusCreated, messageCreatedResponse{ID: msgID})
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, id string) {
	o, err := h.service.Order(r.Context(), principal(r), id)
	if err != nil {
		h.writeError(w, err, "get order error", zap.String("order", id))
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// AdminListServices возвращает все услуги, включая снятые с продажи.
func (h *Handler) AdminListServices(w http.ResponseWriter, r *http.Request) {
	services := h.service.AllServices(r.Context())

	resp := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		resp = append(resp, toServiceResponse(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type serviceRequest struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Duration      string           `json:"duration"`
	Difficulty    string           `json:"difficulty"`
	Features      []string         `json:"features"`
	Active        *bool            `json:"active"`
	Popular       bool             `json:"popular"`
	Category      string           `json:"category"`
}

// AdminCreateService добавляет услугу в каталог. Новая услуга активна, если не указано иное.
func (h *Handler) AdminCreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := model.ParseCategory(req.Category)
	if err != nil {
		h.writeError(w, err, "parse category error")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	s, err := h.service.AddService(r.Context(), catalog.ServiceInput{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Duration:      req.Duration,
		Difficulty:    req.Difficulty,
		Features:      req.Features,
		Active:        active,
		Popular:       req.Popular,
		Category:      category,
	})
	if err != nil {
		h.writeError(w, err, "create service error")
		return
	}
	h.writeJSON(w, http.StatusCreated, toServiceResponse(s))
}

type servicePatchRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Duration      *string          `json:"duration"`
	Difficulty    *string          `json:"difficulty"`
	Features      []string         `json:"features"`
	Popular       *bool            `json:"popular"`
	Category      *string          `json:"category"`
}

// AdminUpdateService изменяет поля услуги. Отсутствующие поля не меняются.
func (h *Handler) AdminUpdateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req servicePatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := catalog.ServicePatch{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Duration:      req.Duration,
		Difficulty:    req.Difficulty,
		Features:      req.Features,
		Popular:       req.Popular,
	}
	if req.Category != nil {
		c, err := model.ParseCategory(*req.Category)
		if err != nil {
			h.writeError(w, err, "parse category error")
			return
		}
		patch.Category = &c
	}

	s, err := h.service.UpdateService(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, err, "update service error", zap.String("service", id))
		return
	}
	h.writeJSON(w, http.StatusOK, toServiceResponse(s))
}

type activeRequest struct {
	Active bool `json:"active"`
}

// AdminSetServiceActive выставляет или снимает услугу с продажи.
func (h *Handler) AdminSetServiceActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req activeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.SetServiceActive(r.Context(), id, req.Active)
	if err != nil {
		h.writeError(w, err, "set service active error", zap.String("service", id))
		return
	}
	h.writeJSON(w, http.StatusOK, toServiceResponse(s))
}
