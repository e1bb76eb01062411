// Package stats maintains the rolling per-pathway history backing
// Mind.Stats() (SPEC_FULL.md supplemented feature). Adapted from the
// teacher's internal/stats.Collector: ModelID/ProviderID collapse into a
// single PathwayName since a Pathway is the core's only routing unit.
package stats

import (
	"sort"
	"sync"
	"time"
)

// Snapshot is one recorded request outcome.
type Snapshot struct {
	Timestamp    time.Time
	PathwayName  string
	LatencyMs    float64
	Success      bool
	InputTokens  int
	OutputTokens int
}

// Window names a rolling aggregation window.
type Window struct {
	Name     string
	Duration time.Duration
}

// DefaultWindows returns the standard set of rolling windows.
func DefaultWindows() []Window {
	return []Window{
		{Name: "1m", Duration: time.Minute},
		{Name: "5m", Duration: 5 * time.Minute},
		{Name: "1h", Duration: time.Hour},
		{Name: "24h", Duration: 24 * time.Hour},
	}
}

// Aggregate holds computed stats for one pathway over one window.
type Aggregate struct {
	Window       string
	PathwayName  string
	RequestCount int
	ErrorCount   int
	ErrorRate    float64
	AvgLatencyMs float64
	P95LatencyMs float64
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Collector maintains rolling snapshots for Mind.Stats().
type Collector struct {
	mu        sync.RWMutex
	snapshots []Snapshot
	maxAge    time.Duration
	windows   []Window
}

// NewCollector creates a collector using the default windows.
func NewCollector() *Collector {
	return &Collector{
		windows: DefaultWindows(),
		maxAge:  25 * time.Hour,
	}
}

// Record adds a new snapshot, stamping it with the current time if unset.
func (c *Collector) Record(s Snapshot) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	c.mu.Lock()
	c.snapshots = append(c.snapshots, s)
	c.mu.Unlock()
}

func (c *Collector) pruneLocked(cutoff time.Time) {
	i := 0
	for i < len(c.snapshots) && c.snapshots[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		c.snapshots = c.snapshots[i:]
	}
}

func (c *Collector) snapshotsAfterPrune() []Snapshot {
	cutoff := time.Now().Add(-c.maxAge)
	c.mu.Lock()
	c.pruneLocked(cutoff)
	cp := make([]Snapshot, len(c.snapshots))
	copy(cp, c.snapshots)
	c.mu.Unlock()
	return cp
}

// Summary returns aggregated stats for all windows grouped by pathway.
func (c *Collector) Summary() map[string][]Aggregate {
	snapshots := c.snapshotsAfterPrune()
	now := time.Now()
	result := make(map[string][]Aggregate)

	for _, w := range c.windows {
		cutoff := now.Add(-w.Duration)
		byPathway := make(map[string][]Snapshot)
		for _, s := range snapshots {
			if s.Timestamp.After(cutoff) {
				byPathway[s.PathwayName] = append(byPathway[s.PathwayName], s)
			}
		}
		for name, snaps := range byPathway {
			result[w.Name] = append(result[w.Name], computeAggregate(w.Name, name, snaps))
		}
	}
	return result
}

// Global returns aggregate stats across all pathways, one entry per window.
func (c *Collector) Global() []Aggregate {
	snapshots := c.snapshotsAfterPrune()
	now := time.Now()
	var result []Aggregate
	for _, w := range c.windows {
		cutoff := now.Add(-w.Duration)
		var snaps []Snapshot
		for _, s := range snapshots {
			if s.Timestamp.After(cutoff) {
				snaps = append(snaps, s)
			}
		}
		if len(snaps) > 0 {
			result = append(result, computeAggregate(w.Name, "", snaps))
		}
	}
	return result
}

// SnapshotCount returns the total number of stored snapshots.
func (c *Collector) SnapshotCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}

func computeAggregate(window, pathwayName string, snaps []Snapshot) Aggregate {
	a := Aggregate{Window: window, PathwayName: pathwayName, RequestCount: len(snaps)}

	var totalLatency float64
	latencies := make([]float64, 0, len(snaps))
	for _, s := range snaps {
		totalLatency += s.LatencyMs
		latencies = append(latencies, s.LatencyMs)
		a.InputTokens += s.InputTokens
		a.OutputTokens += s.OutputTokens
		if !s.Success {
			a.ErrorCount++
		}
	}
	a.TotalTokens = a.InputTokens + a.OutputTokens

	if a.RequestCount > 0 {
		a.AvgLatencyMs = totalLatency / float64(a.RequestCount)
		a.ErrorRate = float64(a.ErrorCount) / float64(a.RequestCount)
	}

	sort.Float64s(latencies)
	if len(latencies) > 0 {
		idx := int(float64(len(latencies)) * 0.95)
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		a.P95LatencyMs = latencies[idx]
	}
	return a
}
