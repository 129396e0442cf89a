package infocache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_infocache_reads",
	Help: "Number of cache reads, by cache name and entry state at read time.",
}, []string{"cache", "state"})

var cacheFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_infocache_fetches",
	Help: "Number of background fetches started, by cache name and trigger.",
}, []string{"cache", "trigger"})

var cacheFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "twitch_infocache_fetch_failures",
	Help: "Number of fetches that completed without a value.",
}, []string{"cache"})
