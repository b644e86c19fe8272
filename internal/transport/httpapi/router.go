// Package httpapi: HTTP API витрины: цены, корзина, оформление и администрирование заказов.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/fulfillment"
)

const (
	headerSessionID      = "X-Session-ID"
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// Pricer считает цену конфигурации.
type Pricer interface {
	Price(product domain.Product, cfg domain.Configuration) (domain.PriceBreakdown, error)
}

// Carts: операции корзины.
type Carts interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	AddItem(ctx context.Context, sessionID, slug string, cfg domain.Configuration) (domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int32) (domain.Cart, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	Totals(cart domain.Cart, region string) domain.Totals
}

// Orders: оформление и администрирование заказов.
type Orders interface {
	FulfillOrder(ctx context.Context, req fulfillment.CheckoutRequest) (fulfillment.CheckoutResult, error)
	GetOrder(ctx context.Context, id string) (fulfillment.OrderView, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)
	AttachTracking(ctx context.Context, id, awb, carrier string) (domain.Order, error)
}

// Shipping: сроки доставки и подсказки адреса.
type Shipping interface {
	ETA(region string) domain.ETA
	ShippingCost(region string) decimal.Decimal
	SearchLocalities(query, country string) []domain.Locality
}

// Deps: зависимости HTTP API.
type Deps struct {
	Catalog       domain.CatalogRepository
	Pricer        Pricer
	Carts         Carts
	Orders        Orders
	Shipping      Shipping
	Authenticator domain.Authenticator
	// AllowedOrigins для CORS; пустой список разрешает любой origin.
	AllowedOrigins []string
	Logger         *log.Entry
}

// Handler держит зависимости обработчиков.
type Handler struct {
	catalog  domain.CatalogRepository
	pricer   Pricer
	carts    Carts
	orders   Orders
	shipping Shipping
	auth     domain.Authenticator
	logger   *log.Entry
}

// NewRouter собирает chi-роутер со всеми маршрутами /api/v1.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	auth := deps.Authenticator
	if auth == nil {
		auth = NewTokenAuthenticator("")
	}
	h := &Handler{
		catalog:  deps.Catalog,
		pricer:   deps.Pricer,
		carts:    deps.Carts,
		orders:   deps.Orders,
		shipping: deps.Shipping,
		auth:     auth,
		logger:   logger,
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", headerSessionID, headerIdempotencyKey},
		ExposedHeaders: []string{headerReplayed},
		MaxAge:         600,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/price/banner", h.priceBanner)
		r.Get("/price", h.priceCatalog)
		r.Get("/products", h.listProducts)
		r.Get("/products/{slug}", h.getProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addCartItem)
			r.Patch("/items/{id}", h.updateCartItem)
			r.Delete("/items/{id}", h.removeCartItem)
			r.Post("/coupon", h.applyCoupon)
		})

		r.Post("/orders", h.createOrder)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/orders/{id}", h.getOrder)
			r.Patch("/orders/{id}/status", h.updateOrderStatus)
			r.Post("/orders/{id}/awb", h.attachAWB)
		})

		r.Get("/shipping/eta", h.shippingETA)
		r.Get("/localities", h.searchLocalities)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func accessLog(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}
