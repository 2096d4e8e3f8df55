package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchNodesVisited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scramble_search_nodes_visited_total",
		Help: "Nodes visited by iterative-deepening searches",
	}, []string{"puzzle"})

	searchSolutionsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scramble_search_solutions_total",
		Help: "Solutions yielded by iterative-deepening searches",
	}, []string{"puzzle"})

	hashPruneTableEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scramble_hash_prune_table_entries",
		Help: "Patterns stored in the most recently extended hash prune table",
	}, []string{"puzzle"})
)
