// Package observability provides query statistics tracking for usage
// reporting and performance monitoring.
package observability

import (
	"sort"
	"sync"
	"time"
)

// QueryStats tracks operation and filter-attribute frequency across
// queries. Queries themselves are pure; the tracker is the one piece of
// shared mutable state, so it guards itself.
type QueryStats struct {
	mu            sync.RWMutex
	operationFreq map[string]*UsageStats
	attributeFreq map[string]*UsageStats
	window        time.Duration
}

// UsageStats holds frequency statistics for an operation or attribute.
type UsageStats struct {
	Name      string
	Frequency int64
	LastSeen  time.Time
}

// NewQueryStats creates a new query statistics tracker.
// window: time duration for pruning old entries (e.g. 1 hour).
func NewQueryStats(window time.Duration) *QueryStats {
	return &QueryStats{
		operationFreq: make(map[string]*UsageStats),
		attributeFreq: make(map[string]*UsageStats),
		window:        window,
	}
}

// RecordOperation records one execution of a named query operation.
// This method is O(1) and thread-safe.
func (q *QueryStats) RecordOperation(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	bump(q.operationFreq, name)
}

// RecordAttribute records a filter referencing a dimension attribute.
// This method is O(1) and thread-safe.
func (q *QueryStats) RecordAttribute(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	bump(q.attributeFreq, name)
}

func bump(m map[string]*UsageStats, name string) {
	stats, exists := m[name]
	if !exists {
		stats = &UsageStats{Name: name}
		m[name] = stats
	}
	stats.Frequency++
	stats.LastSeen = time.Now()
}

// TopOperations returns the top N operations by frequency.
// Returns a copy of the stats sorted by frequency (descending).
func (q *QueryStats) TopOperations(n int) []UsageStats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return top(q.operationFreq, n)
}

// TopAttributes returns the top N filter attributes by frequency.
// Returns a copy of the stats sorted by frequency (descending).
func (q *QueryStats) TopAttributes(n int) []UsageStats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return top(q.attributeFreq, n)
}

func top(m map[string]*UsageStats, n int) []UsageStats {
	if n <= 0 || len(m) == 0 {
		return []UsageStats{}
	}

	stats := make([]UsageStats, 0, len(m))
	for _, s := range m {
		stats = append(stats, *s)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		return stats[i].Name < stats[j].Name
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Prune removes entries where time.Since(LastSeen) > window.
// This should be called periodically (e.g. every 5 minutes).
func (q *QueryStats) Prune() {
	q.mu.Lock()
	defer q.mu.Unlock()

	threshold := time.Now().Add(-q.window)
	for name, stats := range q.operationFreq {
		if stats.LastSeen.Before(threshold) {
			delete(q.operationFreq, name)
		}
	}
	for name, stats := range q.attributeFreq {
		if stats.LastSeen.Before(threshold) {
			delete(q.attributeFreq, name)
		}
	}
}
