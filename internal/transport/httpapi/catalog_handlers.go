package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/validation"
)

const bannerSlug = "banner"

func (h *Handler) priceBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerPriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cfg := domain.Configuration{
		WidthCm:    req.WidthCm,
		HeightCm:   req.HeightCm,
		Quantity:   req.Quantity,
		MaterialID: req.Material,
		Options:    domain.Options{WindHoles: req.WindHoles, HemGrommets: req.HemGrommets},
		Color:      domain.Color(req.Color),
		Design:     domain.Design(req.DesignOption),
	}
	h.quote(w, r, bannerSlug, cfg)
}

func (h *Handler) priceCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slug := strings.TrimSpace(q.Get("slug"))
	if slug == "" {
		h.writeDomainError(w, r, domain.Reject(domain.ErrInvalidConfiguration, "slug", "is required"))
		return
	}

	width, err := requiredFloat(q.Get("widthCm"), "widthCm")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	height, err := requiredFloat(q.Get("heightCm"), "heightCm")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var qty float64
	if raw := q.Get("quantity"); raw != "" {
		if qty, err = strconv.ParseFloat(raw, 64); err != nil {
			h.writeDomainError(w, r, domain.Reject(domain.ErrMalformedInput, "quantity", "must be a number"))
			return
		}
	}

	h.quote(w, r, slug, domain.Configuration{
		WidthCm:    width,
		HeightCm:   height,
		Quantity:   qty,
		MaterialID: strings.TrimSpace(q.Get("materialId")),
		Side:       domain.SideMode(strings.TrimSpace(q.Get("side"))),
	})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request, slug string, cfg domain.Configuration) {
	product, err := h.catalog.Product(slug)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	cfg, err = validation.Validate(product, cfg)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	breakdown, err := h.pricer.Price(product, cfg)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Product:  product.Slug,
		Currency: domain.Currency,
		Price:    breakdown,
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, _ *http.Request) {
	products := h.catalog.Products()
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(chi.URLParam(r, "slug"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

func requiredFloat(raw, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.Reject(domain.ErrInvalidConfiguration, field, "is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.Reject(domain.ErrMalformedInput, field, "must be a number")
	}
	if v <= 0 {
		return 0, domain.Reject(domain.ErrInvalidConfiguration, field, "must be positive, got %g", v)
	}
	return v, nil
}
