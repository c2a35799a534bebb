package devserver

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/swatch/internal/adapters/logger"
	"go.trai.ch/swatch/internal/adapters/metrics"
	"go.trai.ch/swatch/internal/core/ports"
)

// NodeID is the unique identifier for the development server Graft node.
const NodeID graft.ID = "adapter.devserver"

func init() {
	graft.Register(graft.Node[ports.DevServer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.DevServer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			prom, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}
			srv := New(log, prom.Handler())
			prom.Registry().MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "swatch",
				Name:      "livereload_clients",
				Help:      "Browsers connected to the live reload stream.",
			}, func() float64 { return float64(srv.Hub().Clients()) }))
			return srv, nil
		},
	})
}
