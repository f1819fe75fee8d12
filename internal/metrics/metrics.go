package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	TxApplied   *prometheus.CounterVec // by type
	TxRejected  *prometheus.CounterVec // by kind
	TxLatency   prometheus.Histogram
	CASRetries  prometheus.Counter
	DriftedSKUs prometheus.Gauge
	HTTPReqs    *prometheus.CounterVec // by method, route, status
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transactions_applied_total",
		Help: "Stock transactions committed to the ledger.",
	}, []string{"type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transactions_rejected_total",
		Help: "Stock transactions that failed, by error kind.",
	}, []string{"kind"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_apply_latency_seconds",
		Help:    "Time spent applying one stock transaction, including lock waits and retries.",
		Buckets: prometheus.DefBuckets,
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_apply_cas_retries_total",
		Help: "Stock applications re-run after losing the quantity compare-and-swap.",
	})
	drift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stock_reconcile_drifted_products",
		Help: "Products whose cached quantity disagreed with the ledger at the last reconciliation.",
	})
	httpReqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})

	r.MustRegister(applied, rejected, latency, retries, drift, httpReqs)
	return &Registry{
		reg:         r,
		TxApplied:   applied,
		TxRejected:  rejected,
		TxLatency:   latency,
		CASRetries:  retries,
		DriftedSKUs: drift,
		HTTPReqs:    httpReqs,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
