// Package metrics exposes Prometheus instrumentation for the trading loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeBlocked = "blocked"
	OutcomeError   = "error"
)

// Recorder owns the bot's Prometheus collectors. All collectors are
// registered on the registry passed to New, which the dashboard serves
// at /metrics.
type Recorder struct {
	cyclesTotal      *prometheus.CounterVec
	ordersPlaced     prometheus.Counter
	orderFailures    prometheus.Counter
	reconciledTrades prometheus.Counter
	scanDuration     prometheus.Histogram
	balanceCents     prometheus.Gauge
	openTrades       prometheus.Gauge
}

// New creates a Recorder and registers its collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calci",
			Name:      "cycles_total",
			Help:      "Trading cycles by outcome.",
		}, []string{"outcome"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calci",
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the venue.",
		}),
		orderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calci",
			Name:      "order_failures_total",
			Help:      "Order submissions rejected or errored.",
		}),
		reconciledTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calci",
			Name:      "reconciled_trades_total",
			Help:      "Trade rows advanced by the reconciler.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calci",
			Name:      "scan_duration_seconds",
			Help:      "Wall time of the market scan phase.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		balanceCents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "calci",
			Name:      "balance_cents",
			Help:      "Account balance at the last cycle, in cents.",
		}),
		openTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "calci",
			Name:      "open_trades",
			Help:      "Trades in a non-terminal status at the last cycle.",
		}),
	}
	reg.MustRegister(
		r.cyclesTotal,
		r.ordersPlaced,
		r.orderFailures,
		r.reconciledTrades,
		r.scanDuration,
		r.balanceCents,
		r.openTrades,
	)
	return r
}

func (r *Recorder) CycleFinished(outcome string) { r.cyclesTotal.WithLabelValues(outcome).Inc() }
func (r *Recorder) OrderPlaced()                 { r.ordersPlaced.Inc() }
func (r *Recorder) OrderFailed()                 { r.orderFailures.Inc() }
func (r *Recorder) TradesReconciled(n int)       { r.reconciledTrades.Add(float64(n)) }
func (r *Recorder) ScanDuration(seconds float64) { r.scanDuration.Observe(seconds) }
func (r *Recorder) Balance(cents int64)          { r.balanceCents.Set(float64(cents)) }
func (r *Recorder) OpenTrades(n int)             { r.openTrades.Set(float64(n)) }
