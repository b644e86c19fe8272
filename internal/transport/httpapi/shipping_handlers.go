package httpapi

import "net/http"

type etaResponse struct {
	County  string `json:"county,omitempty"`
	MinDays int    `json:"minDays"`
	MaxDays int    `json:"maxDays"`
	Carrier string `json:"carrier"`
	Cost    string `json:"cost"`
}

// shippingETA никогда не падает: неизвестный округ получает окно по умолчанию.
func (h *Handler) shippingETA(w http.ResponseWriter, r *http.Request) {
	county := r.URL.Query().Get("county")
	eta := h.shipping.ETA(county)
	writeJSON(w, http.StatusOK, etaResponse{
		County:  county,
		MinDays: eta.MinDays,
		MaxDays: eta.MaxDays,
		Carrier: eta.Carrier,
		Cost:    h.shipping.ShippingCost(county).StringFixed(2),
	})
}

func (h *Handler) searchLocalities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, localitiesResponse{
		Localities: h.shipping.SearchLocalities(q.Get("q"), q.Get("country")),
	})
}
