package api

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/glimmerchat/amethyst/twitch/model"
)

// gameSearch answers category searches from a bounded cache of recent
// queries, with at most one outstanding network search per query.
type gameSearch struct {
	api     *API
	results *expirable.LRU[string, []model.Game]

	mu      sync.Mutex
	pending map[string]bool
}

func newGameSearch(a *API, size int, ttl time.Duration) *gameSearch {
	return &gameSearch{
		api:     a,
		results: expirable.NewLRU[string, []model.Game](size, nil, ttl),
		pending: make(map[string]bool),
	}
}

func (g *gameSearch) search(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return
	}
	if games, ok := g.results.Get(query); ok {
		searchResults.WithLabelValues("cached").Inc()
		g.api.listeners.gameSearchResult(query, games)
		return
	}

	g.mu.Lock()
	if g.pending[query] {
		g.mu.Unlock()
		return
	}
	g.pending[query] = true
	g.mu.Unlock()

	searchResults.WithLabelValues("dispatched").Inc()
	g.api.dispatcher.SearchGames(g.api.Token(), query, func(games []model.Game, code model.ResultCode) {
		g.mu.Lock()
		delete(g.pending, query)
		g.mu.Unlock()

		g.api.checkAccess(code)
		if !code.Ok() {
			g.api.logger.Warn("game search failed", "query", query, "code", code)
			return
		}
		g.results.Add(query, games)
		g.api.listeners.gameSearchResult(query, games)
	})
}

// SearchGames runs a category search and reports the matches to the
// listeners. Recent queries are answered from a bounded cache; identical
// concurrent queries share one network call.
func (a *API) SearchGames(query string) {
	a.search.search(query)
}
