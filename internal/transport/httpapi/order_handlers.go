package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/fulfillment"
)

// Статусы, которые администратор может выставить вручную.
var adminStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusCanceled:   true,
	domain.OrderStatusFulfilled:  true,
	domain.OrderStatusInProgress: true,
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cart, err := h.carts.Get(r.Context(), session)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := h.orders.FulfillOrder(r.Context(), fulfillment.CheckoutRequest{
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
		Cart:           cart,
		Customer:       req.customer(),
		PaymentMethod:  domain.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
		w.Header().Set(headerReplayed, "true")
	} else if err := h.carts.Clear(r.Context(), session); err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"session_id": session,
			"order_id":   result.OrderID,
		}).Warn("failed to clear cart after checkout")
	}

	writeJSON(w, status, createOrderResponse{
		Success:     true,
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		Status:      result.Status,
		Amount:      domain.FromMinor(result.AmountMinor),
		Currency:    result.Currency,
		InvoiceLink: result.InvoiceURL,
		AWBNumber:   result.AWBNumber,
		Degraded:    result.Degraded,
		Stages:      result.Stages,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderViewResponse{
		Order:    toOrderDTO(view.Order),
		Timeline: view.Timeline,
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err == nil && !adminStatuses[status] {
		err = domain.ErrInvalidOrderStatus
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *Handler) attachAWB(w http.ResponseWriter, r *http.Request) {
	var req attachAWBRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	order, err := h.orders.AttachTracking(r.Context(), chi.URLParam(r, "id"), req.AWBNumber, req.AWBCarrier)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}
