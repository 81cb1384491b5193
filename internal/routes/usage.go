// Package routes counts how often each road-network edge is traversed by the
// vehicles in a generated route file.
package routes

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
)

// EdgeCount is one entry of the usage ranking.
type EdgeCount struct {
	EdgeID string `json:"edge_id"`
	Count  int    `json:"count"`
}

// Usage is the per-edge traversal table for a single route file.
type Usage struct {
	// Counts maps edge ID to the number of times it appears in any route.
	Counts map[string]int
	// Order holds edge IDs in first-seen order; it breaks ranking ties.
	Order []string
	// TotalTraversals sums the lengths of every route edge list.
	TotalTraversals int
}

// NewUsage returns an empty table.
func NewUsage() *Usage {
	return &Usage{Counts: make(map[string]int)}
}

// Add records one route's edge list.
func (u *Usage) Add(edges []string) {
	for _, id := range edges {
		if _, seen := u.Counts[id]; !seen {
			u.Order = append(u.Order, id)
		}
		u.Counts[id]++
	}
	u.TotalTraversals += len(edges)
}

// UniqueEdges is the number of distinct edge IDs seen.
func (u *Usage) UniqueEdges() int { return len(u.Counts) }

// Top returns at most n edges by descending count; equal counts keep
// first-seen order.
func (u *Usage) Top(n int) []EdgeCount {
	if n <= 0 || len(u.Order) == 0 {
		return nil
	}
	ranked := make([]EdgeCount, len(u.Order))
	for i, id := range u.Order {
		ranked[i] = EdgeCount{EdgeID: id, Count: u.Counts[id]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Percentage is count as a share of all traversals, 0 when there are none.
func (u *Usage) Percentage(count int) float64 {
	if u.TotalTraversals == 0 {
		return 0
	}
	return float64(count) / float64(u.TotalTraversals) * 100
}

// Summary renders the usage report as log lines.
func (u *Usage) Summary(n int) []string {
	lines := []string{
		"--- Edge Usage Report ---",
		fmt.Sprintf("Total Unique Edges Used: %s", humanize.Comma(int64(u.UniqueEdges()))),
		fmt.Sprintf("Total Edges Traversed: %s", humanize.Comma(int64(u.TotalTraversals))),
		fmt.Sprintf("Top %d Most Used Edges:", n),
	}
	for _, ec := range u.Top(n) {
		lines = append(lines, fmt.Sprintf("* %s: %s times (%.2f%%)", ec.EdgeID, humanize.Comma(int64(ec.Count)), u.Percentage(ec.Count)))
	}
	return lines
}
