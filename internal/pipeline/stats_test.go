package pipeline

import (
	"testing"
	"time"
)

func TestBuildStats_Percentiles(t *testing.T) {
	stats := NewBuildStats(time.Hour)
	for _, ms := range []int{500, 100, 400, 200, 300} {
		stats.Record(time.Duration(ms)*time.Millisecond, ms/10)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count 5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Errorf("expected min 100 max 500, got min %d max %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Errorf("expected avg 300, got %f", snap.AvgMs)
	}
	tests := []struct {
		name      string
		got, want float64
	}{
		{"p50", snap.P50Ms, 300},
		{"p95", snap.P95Ms, 480},
		{"p99", snap.P99Ms, 496},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %s %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestBuildStats_Nodes(t *testing.T) {
	stats := NewBuildStats(time.Hour)
	stats.Record(200*time.Millisecond, 10)
	stats.Record(300*time.Millisecond, 40)

	snap := stats.Snapshot()
	if snap.TotalNodes != 50 || snap.MaxNodes != 40 {
		t.Errorf("expected 50 total / 40 max nodes, got %d / %d", snap.TotalNodes, snap.MaxNodes)
	}
	if snap.NodesPerSec != 100 {
		t.Errorf("expected 100 nodes/sec, got %f", snap.NodesPerSec)
	}
}

func TestBuildStats_ZeroDurationHasNoRate(t *testing.T) {
	stats := NewBuildStats(time.Hour)
	stats.Record(0, 12)
	if snap := stats.Snapshot(); snap.NodesPerSec != 0 || snap.TotalNodes != 12 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestBuildStats_Expires(t *testing.T) {
	stats := NewBuildStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, 1)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected no builds after expiry, got %d", snap.Count)
	}

	stats.Record(200*time.Millisecond, 3)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.TotalNodes != 3 {
		t.Errorf("expected a single 200ms build, got %+v", snap)
	}
}

func TestBuildStats_ClampsNegatives(t *testing.T) {
	stats := NewBuildStats(0)
	stats.Record(-10*time.Millisecond, -1)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 || snap.TotalNodes != 0 {
		t.Errorf("expected one clamped build, got %+v", snap)
	}
}

func TestBuildStats_Empty(t *testing.T) {
	if snap := NewBuildStats(time.Hour).Snapshot(); snap != (StatsSnapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
