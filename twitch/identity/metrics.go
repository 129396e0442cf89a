package identity

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var resolveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_identity_requests",
	Help: "Number of resolution requests, by access mode.",
}, []string{"mode"})

var lookupsDispatched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "twitch_identity_lookups_dispatched",
	Help: "Number of batched network lookups handed to the source.",
})

var lookupBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "twitch_identity_lookup_batch_size",
	Help:    "Distribution of names per dispatched lookup batch.",
	Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
})

var lookupsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
	Name: "twitch_identity_lookups_coalesced",
	Help: "Number of requested names that attached to an already in-flight lookup.",
})

var lookupResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_identity_lookup_results",
	Help: "Per-name lookup outcomes.",
}, []string{"status"})

func resultStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	default:
		return "failed"
	}
}
