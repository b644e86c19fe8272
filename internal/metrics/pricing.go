package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics считает расчёты цен по модели и исходу.
type PricingMetrics struct {
	quotes   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPricingMetrics регистрирует метрики в глобальном реестре.
func NewPricingMetrics() *PricingMetrics {
	return NewPricingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPricingMetricsWithRegisterer регистрирует метрики в указанном реестре.
func NewPricingMetricsWithRegisterer(registerer prometheus.Registerer) *PricingMetrics {
	return &PricingMetrics{
		quotes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "printshop_price_quotes_total",
			Help: "Total number of price calculations by pricing model and outcome",
		}, []string{"model", "outcome"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "printshop_price_quote_duration_seconds",
			Help:    "Duration of price calculations in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"model"}),
	}
}

// RecordQuote фиксирует один расчёт.
func (m *PricingMetrics) RecordQuote(model, outcome string, d time.Duration) {
	m.quotes.WithLabelValues(model, outcome).Inc()
	m.duration.WithLabelValues(model).Observe(d.Seconds())
}
