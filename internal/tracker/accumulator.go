package tracker

import (
	"sort"

	"github.com/creatorsconnections/liveboard/internal/repository"
)

// counter is an insertion-ordered tally of performer handles. Order of first
// appearance is preserved so equal scores rank deterministically by who was
// seen first, never alphabetically.
type counter struct {
	counts map[string]int64
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int64)}
}

func (c *counter) Add(handle string, n int64) {
	if _, seen := c.counts[handle]; !seen {
		c.order = append(c.order, handle)
	}
	c.counts[handle] += n
}

func (c *counter) Len() int {
	return len(c.order)
}

// Snapshot returns the current totals in first-seen order.
func (c *counter) Snapshot() []repository.MetricTotal {
	out := make([]repository.MetricTotal, 0, len(c.order))
	for _, handle := range c.order {
		out = append(out, repository.MetricTotal{PerformerHandle: handle, Total: c.counts[handle]})
	}
	return out
}

// rankTotals orders totals by descending count. The sort is stable, so ties
// keep their first-seen order.
func rankTotals(totals []repository.MetricTotal) []repository.MetricTotal {
	ranked := make([]repository.MetricTotal, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}

// mergeTotals adds extra on top of base, preserving base order and appending
// handles first seen in extra.
func mergeTotals(base, extra []repository.MetricTotal) []repository.MetricTotal {
	merged := make([]repository.MetricTotal, len(base))
	copy(merged, base)
	index := make(map[string]int, len(base))
	for i, t := range base {
		index[t.PerformerHandle] = i
	}
	for _, t := range extra {
		if i, ok := index[t.PerformerHandle]; ok {
			merged[i].Total += t.Total
			continue
		}
		index[t.PerformerHandle] = len(merged)
		merged = append(merged, t)
	}
	return merged
}
