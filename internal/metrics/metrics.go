package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tapcard/internal/model"
)

// Metrics holds the prometheus instruments for the order path. A nil
// *Metrics is valid and records nothing, so tests can pass nil.
type Metrics struct {
	ordersTotal   *prometheus.CounterVec
	orderDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ordersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tapcard_orders_total",
			Help: "Order placement attempts by outcome.",
		}, []string{"outcome"}),
		orderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tapcard_order_duration_seconds",
			Help:    "Latency of the order placement path.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveOrder(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ordersTotal.WithLabelValues(outcome(err)).Inc()
	m.orderDuration.Observe(d.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var notFound *model.NotFoundError
	var validation *model.ValidationError
	var funds *model.InsufficientFundsError
	var stock *model.InsufficientStockError
	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &funds):
		return "insufficient_funds"
	case errors.As(err, &stock):
		return "insufficient_stock"
	default:
		return "persistence"
	}
}
