// Package metrics records watch mode activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/swatch/internal/core/domain"
	"go.trai.ch/swatch/internal/core/ports"
)

const namespace = "swatch"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implements ports.Metrics on a private registry.
type Prometheus struct {
	registry        *prometheus.Registry
	rebuilds        *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	taskRuns        *prometheus.CounterVec
	reloads         *prometheus.CounterVec
	reloadClients   prometheus.Gauge
	invalidations   prometheus.Counter
}

// New creates the collectors and registers them together with the Go runtime
// and process collectors.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rebuilds_total", Help: "Debounced watch mode rebuilds by result.",
		}, []string{"result"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "rebuild_duration_seconds", Help: "Duration of watch mode rebuilds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rebuild_tasks_total", Help: "Tasks triggered by watch mode rebuilds.",
		}, []string{"task"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reloads_total", Help: "Live reload notifications by kind.",
		}, []string{"kind"}),
		reloadClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_reload_clients", Help: "Clients reached by the most recent reload.",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "script_invalidations_total", Help: "Script bundle cache entries dropped.",
		}),
	}

	p.registry.MustRegister(p.rebuilds, p.rebuildDuration, p.taskRuns, p.reloads, p.reloadClients, p.invalidations)
	p.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return p
}

// Registry exposes the registry so other adapters can add collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRebuild records one debounced rebuild.
func (p *Prometheus) ObserveRebuild(tasks []string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	p.rebuilds.WithLabelValues(result).Inc()
	p.rebuildDuration.Observe(d.Seconds())
	for _, task := range tasks {
		p.taskRuns.WithLabelValues(task).Inc()
	}
}

// ObserveReload records one reload notification.
func (p *Prometheus) ObserveReload(kind domain.ReloadKind, clients int) {
	p.reloads.WithLabelValues(string(kind)).Inc()
	p.reloadClients.Set(float64(clients))
}

// ObserveInvalidation records dropped script bundle cache entries.
func (p *Prometheus) ObserveInvalidation(entries int) {
	p.invalidations.Add(float64(entries))
}
