// Package metrics keeps process counters in a private Prometheus registry.
// The CLI runs one command per process, so instead of serving /metrics the
// registry is flushed to a node_exporter textfile when a path is configured.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the collectors updated by recomputes and sale commits.
type Registry struct {
	reg *prometheus.Registry

	Recomputes     prometheus.Counter
	LastMarginPct  prometheus.Gauge
	LastNetProfit  prometheus.Gauge
	SalesCommitted prometheus.Counter
	UnitsSold      prometheus.Counter
	RevenueTotal   prometheus.Counter
	SalesRejected  *prometheus.CounterVec
	SalesDeleted   prometheus.Counter
}

// NewRegistry registers every collector on a fresh Prometheus registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	recomputes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gestao_recomputes_total",
		Help: "Margin engine passes.",
	})
	lastMargin := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gestao_last_margin_percent",
		Help: "Net margin percent of the last recompute.",
	})
	lastProfit := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gestao_last_net_profit",
		Help: "Net profit of the last recompute.",
	})
	committed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gestao_sales_committed_total",
		Help: "Sales written to the history.",
	})
	units := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gestao_units_sold_total",
		Help: "Units removed from stock by committed sales.",
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gestao_revenue_committed_total",
		Help: "Revenue of committed sales.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gestao_sales_rejected_total",
		Help: "Sales refused, by reason.",
	}, []string{"reason"})
	deleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gestao_sales_deleted_total",
		Help: "Sales removed from the history.",
	})

	r.MustRegister(recomputes, lastMargin, lastProfit, committed, units, revenue, rejected, deleted)
	return &Registry{
		reg:            r,
		Recomputes:     recomputes,
		LastMarginPct:  lastMargin,
		LastNetProfit:  lastProfit,
		SalesCommitted: committed,
		UnitsSold:      units,
		RevenueTotal:   revenue,
		SalesRejected:  rejected,
		SalesDeleted:   deleted,
	}
}

// ObserveRecompute records one engine pass.
func (r *Registry) ObserveRecompute(netProfit, marginPct float64) {
	r.Recomputes.Inc()
	r.LastNetProfit.Set(netProfit)
	r.LastMarginPct.Set(marginPct)
}

// SaleCommitted records an accepted sale.
func (r *Registry) SaleCommitted(quantity int, total float64) {
	r.SalesCommitted.Inc()
	r.UnitsSold.Add(float64(quantity))
	if total > 0 {
		r.RevenueTotal.Add(total)
	}
}

// SaleRejected records a refused sale by reason.
func (r *Registry) SaleRejected(reason string) {
	r.SalesRejected.WithLabelValues(reason).Inc()
}

// SaleDeleted records a removed sale.
func (r *Registry) SaleDeleted() { r.SalesDeleted.Inc() }

// Gatherer exposes the registry for export and tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile writes every metric to path in the text exposition format.
// An empty path is a no-op.
func (r *Registry) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
