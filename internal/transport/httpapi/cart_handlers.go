package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

func sessionID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(headerSessionID))
	if id == "" {
		return "", domain.ErrSessionRequired
	}
	return id, nil
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, cart domain.Cart) {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Cart:   cart,
		Totals: h.carts.Totals(cart, r.URL.Query().Get("region")),
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cart, err := h.carts.Get(r.Context(), session)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cart, err := h.carts.AddItem(r.Context(), session, req.Slug, req.Configuration)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cart, err := h.carts.UpdateQuantity(r.Context(), session, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cart, err := h.carts.RemoveItem(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req couponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cart, err := h.carts.ApplyCoupon(r.Context(), session, req.Code)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, r, cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	session, err := sessionID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.carts.Clear(r.Context(), session); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
