package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the exporter reputation registry.
type Metrics struct {
	ExportersRegistered  prometheus.Counter
	ExportersVerified    prometheus.Counter
	TransactionsRecorded prometheus.Counter
	TransactionsRated    prometheus.Counter
	AdminTransfers       prometheus.Counter
}

// New creates and registers all exporter registry metrics.
func New() *Metrics {
	return &Metrics{
		ExportersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_exporters_registered_total",
			Help: "Total number of exporters registered",
		}),
		ExportersVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_exporters_verified_total",
			Help: "Total number of admin verification decisions recorded",
		}),
		TransactionsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_exporter_transactions_total",
			Help: "Total number of exporter transactions recorded",
		}),
		TransactionsRated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_exporter_transaction_ratings_total",
			Help: "Total number of buyer ratings submitted",
		}),
		AdminTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_registry_admin_transfers_total",
			Help: "Total number of registry admin handovers",
		}),
	}
}
