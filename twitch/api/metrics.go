package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var accessDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "twitch_api_access_denied_total",
	Help: "Number of authenticated calls rejected for authorization reasons.",
})

var tokenChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_api_token_checks",
	Help: "Number of token verification attempts, by trigger; throttled ones did not run.",
}, []string{"trigger"})

var commandOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_api_commands",
	Help: "Number of dispatched command operations, by kind.",
}, []string{"op"})

var searchResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_api_game_searches",
	Help: "Number of game searches, split by cache answer vs network dispatch.",
}, []string{"source"})
