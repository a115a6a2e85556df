package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the shipping document registry.
type Metrics struct {
	DocumentsIssued      prometheus.Counter
	DocumentsTransferred prometheus.Counter
	StatusUpdates        prometheus.Counter
	VerifyChecks         *prometheus.CounterVec
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
}

// New creates and registers all document registry metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_documents_issued_total",
			Help: "Total number of shipping documents issued",
		}),
		DocumentsTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_documents_transferred_total",
			Help: "Total number of completed document ownership transfers",
		}),
		StatusUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_document_status_updates_total",
			Help: "Total number of document status updates",
		}),
		VerifyChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tradelane_document_verify_checks_total",
			Help: "Total number of verification hash checks by outcome",
		}, []string{"outcome"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_document_cache_hits_total",
			Help: "Total number of document cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tradelane_document_cache_misses_total",
			Help: "Total number of document cache misses",
		}),
	}
}
