// Package fulfillment оформляет заказы из корзины и ведёт их жизненный цикл.
//
// Оформление: последовательность именованных шагов: validate, idempotency, persist,
// shipment, invoice, notify. Ошибки до persist отменяют оформление целиком; сбои курьера,
// счёта и уведомления после persist только помечают результат как degraded.
package fulfillment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/metrics"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultStageTimeout   = 15 * time.Second
	maxSaveAttempts       = 3
	aggregateTypeOrder    = "order"
)

// Totaler считает итоги корзины для региона доставки.
type Totaler interface {
	Totals(cart domain.Cart, region string) domain.Totals
}

// Dependencies: хранилища и внешние исполнители оркестратора.
// Timeline, Outbox и Catalog необязательны; отсутствующий Courier, Invoicer
// или Notifier превращает соответствующий шаг в skipped.
type Dependencies struct {
	Orders      domain.OrderRepository
	Idempotency domain.IdempotencyRepository
	Timeline    domain.TimelineRepository
	Outbox      domain.OutboxRepository
	Catalog     domain.CatalogRepository
	Totals      Totaler
	Courier     domain.Courier
	Invoicer    domain.Invoicer
	Notifier    domain.Notifier
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger оркестратора.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics задаёт метрики оформления.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIdempotencyTTL задаёт срок хранения ключа идемпотентности.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idemTTL = ttl
		}
	}
}

// WithStageTimeout ограничивает время одного вызова внешнего исполнителя.
func WithStageTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.stageTimeout = timeout
		}
	}
}

// Service: оркестратор оформления и жизненного цикла заказов.
type Service struct {
	orders      domain.OrderRepository
	idempotency domain.IdempotencyRepository
	timeline    domain.TimelineRepository
	outbox      domain.OutboxRepository
	catalog     domain.CatalogRepository
	totals      Totaler
	courier     domain.Courier
	invoicer    domain.Invoicer
	notifier    domain.Notifier

	logger       *log.Entry
	metrics      *metrics.CheckoutMetrics
	idemTTL      time.Duration
	stageTimeout time.Duration
	now          func() time.Time
}

// NewService проверяет обязательные зависимости и создаёт оркестратор.
func NewService(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, errors.New("fulfillment: order repository is required")
	case deps.Idempotency == nil:
		return nil, errors.New("fulfillment: idempotency repository is required")
	case deps.Totals == nil:
		return nil, errors.New("fulfillment: totals calculator is required")
	}

	s := &Service{
		orders:       deps.Orders,
		idempotency:  deps.Idempotency,
		timeline:     deps.Timeline,
		outbox:       deps.Outbox,
		catalog:      deps.Catalog,
		totals:       deps.Totals,
		courier:      deps.Courier,
		invoicer:     deps.Invoicer,
		notifier:     deps.Notifier,
		logger:       log.New().WithField("component", "fulfillment"),
		idemTTL:      defaultIdempotencyTTL,
		stageTimeout: defaultStageTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCheckoutMetrics()
	}
	return s, nil
}

func (s *Service) weightPerSqm(slug string) decimal.Decimal {
	if s.catalog == nil {
		return decimal.Zero
	}
	product, err := s.catalog.Product(slug)
	if err != nil {
		return decimal.Zero
	}
	return product.WeightKgPerSqm
}
