package helix

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_helix_requests",
	Help: "Number of HTTP requests to the platform API, by endpoint and status.",
}, []string{"endpoint", "status"})
