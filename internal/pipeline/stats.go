package pipeline

import (
	"slices"
	"sync"
	"time"
)

// build is one recorded parse+build run.
type build struct {
	at    time.Time
	ms    int64
	nodes int
}

// StatsSnapshot aggregates the builds still inside the window.
type StatsSnapshot struct {
	Count       int     `json:"count"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
	TotalNodes  int     `json:"total_nodes"`
	MaxNodes    int     `json:"max_nodes"`
	NodesPerSec float64 `json:"nodes_per_sec"`
}

// BuildStats keeps hierarchy build latencies and sizes over a rolling
// window.
type BuildStats struct {
	mu     sync.Mutex
	builds []build
	window time.Duration
}

func NewBuildStats(window time.Duration) *BuildStats {
	if window <= 0 {
		window = time.Hour
	}
	return &BuildStats{
		builds: make([]build, 0, 256),
		window: window,
	}
}

// Record adds a build that took elapsed and produced nodes nodes.
func (s *BuildStats) Record(elapsed time.Duration, nodes int) {
	now := time.Now()
	b := build{at: now, ms: max(elapsed.Milliseconds(), 0), nodes: max(nodes, 0)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now)
	s.builds = append(s.builds, b)
}

func (s *BuildStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire(now)
	if len(s.builds) == 0 {
		return StatsSnapshot{}
	}

	ms := make([]int64, len(s.builds))
	var snap StatsSnapshot
	var totalMs int64
	for i, b := range s.builds {
		ms[i] = b.ms
		totalMs += b.ms
		snap.TotalNodes += b.nodes
		snap.MaxNodes = max(snap.MaxNodes, b.nodes)
	}
	slices.Sort(ms)

	snap.Count = len(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(totalMs) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	if totalMs > 0 {
		snap.NodesPerSec = float64(snap.TotalNodes) * 1000 / float64(totalMs)
	}
	return snap
}

func (s *BuildStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	s.builds = slices.DeleteFunc(s.builds, func(b build) bool {
		return b.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two closest ranks of
// sorted.
func percentile(sorted []int64, pct float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[n-1])
	}
	rank := float64(n-1) * pct / 100
	lo := int(rank)
	if lo+1 >= n {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
