// Package pricing рассчитывает цену конфигурации продукта по одной из двух именованных стратегий.
package pricing

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/metrics"
	"github.com/vladislavdragonenkov/printshop/internal/service/validation"
)

// Strategy рассчитывает цену для одной модели ценообразования.
type Strategy interface {
	Model() domain.PricingModel
	Price(product domain.Product, cfg domain.Configuration) (domain.PriceBreakdown, error)
}

// Calculator выбирает стратегию по модели продукта. Не хранит состояния между вызовами.
type Calculator struct {
	strategies map[domain.PricingModel]Strategy
	logger     *log.Entry
	metrics    *metrics.PricingMetrics
}

// Option настраивает калькулятор.
type Option func(*Calculator)

// WithLogger задаёт логгер калькулятора.
func WithLogger(logger *log.Entry) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics включает метрики расчётов.
func WithMetrics(m *metrics.PricingMetrics) Option {
	return func(c *Calculator) {
		c.metrics = m
	}
}

// WithStrategy регистрирует или заменяет стратегию.
func WithStrategy(s Strategy) Option {
	return func(c *Calculator) {
		if s != nil {
			c.strategies[s.Model()] = s
		}
	}
}

// NewCalculator создаёт калькулятор с обеими стандартными стратегиями.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		strategies: map[domain.PricingModel]Strategy{
			domain.PricingModelTieredArea:      TieredArea{},
			domain.PricingModelCatalogModifier: CatalogModifier{},
		},
		logger: log.New().WithField("component", "pricing"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Price рассчитывает цену по стратегии, указанной в продукте.
func (c *Calculator) Price(product domain.Product, cfg domain.Configuration) (domain.PriceBreakdown, error) {
	start := time.Now()

	strategy, ok := c.strategies[product.PricingModel]
	if !ok {
		c.observe(product.PricingModel, "unknown_model", start)
		return domain.PriceBreakdown{}, fmt.Errorf("%w: %q for product %s", domain.ErrUnknownPricingModel, product.PricingModel, product.Slug)
	}

	breakdown, err := strategy.Price(product, cfg)
	if err != nil {
		c.observe(product.PricingModel, "rejected", start)
		c.logger.WithError(err).WithFields(log.Fields{
			"product": product.Slug,
			"model":   product.PricingModel,
		}).Debug("price rejected")
		return domain.PriceBreakdown{}, err
	}

	c.observe(product.PricingModel, "ok", start)
	return breakdown, nil
}

func (c *Calculator) observe(model domain.PricingModel, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordQuote(string(model), outcome, time.Since(start))
}

func positiveDimensions(cfg domain.Configuration) error {
	if cfg.WidthCm <= 0 {
		return domain.Reject(domain.ErrInvalidConfiguration, "widthCm", "must be greater than zero")
	}
	if cfg.HeightCm <= 0 {
		return domain.Reject(domain.ErrInvalidConfiguration, "heightCm", "must be greater than zero")
	}
	return nil
}

func quantity(cfg domain.Configuration) (int32, error) {
	qty, err := validation.NormalizeQuantity(cfg.Quantity)
	if err != nil {
		return 0, err
	}
	return int32(qty), nil
}
