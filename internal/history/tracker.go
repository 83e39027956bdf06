package history

import (
	"math"
	"sync"
	"time"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/logger"
)

// DefaultMaxSnapshots is the cap used when none is configured.
const DefaultMaxSnapshots = 100

// stableBand is the absolute percentage change below which a trend is stable.
const stableBand = 0.1

// Direction of a coverage trend.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// Trend compares the earliest and latest snapshot inside a time window.
type Trend struct {
	Direction Direction `json:"direction" yaml:"direction"`
	Change    float64   `json:"change" yaml:"change"`
	From      Snapshot  `json:"from" yaml:"from"`
	To        Snapshot  `json:"to" yaml:"to"`
	Samples   int       `json:"samples" yaml:"samples"`
}

// Stats summarizes the whole retained history.
type Stats struct {
	Current float64 `json:"current" yaml:"current"`
	Peak    float64 `json:"peak" yaml:"peak"`
	Low     float64 `json:"low" yaml:"low"`
	Average float64 `json:"average" yaml:"average"`
	Count   int     `json:"count" yaml:"count"`
}

// Tracker is the in-memory snapshot log. Snapshots are kept in insertion
// order; once the cap is exceeded the oldest inserted are dropped.
type Tracker struct {
	mu        sync.RWMutex
	max       int
	now       func() time.Time
	snapshots []Snapshot
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source used for windows and pruning.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a Tracker keeping at most maxSnapshots entries.
// maxSnapshots <= 0 selects DefaultMaxSnapshots.
func NewTracker(maxSnapshots int, opts ...Option) *Tracker {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	t := &Tracker{max: maxSnapshots, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Restore replaces the log with snapshots, given oldest first, and applies
// the cap.
func (t *Tracker) Restore(snapshots []Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshots = append([]Snapshot(nil), snapshots...)
	t.enforceCap()
}

// RecordSnapshot appends s and drops the oldest entries beyond the cap.
// It returns the number of dropped entries.
func (t *Tracker) RecordSnapshot(s Snapshot) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.Timestamp.IsZero() {
		s.Timestamp = t.now()
	}
	t.snapshots = append(t.snapshots, s)
	return t.enforceCap()
}

// Record captures report as a snapshot taken now.
func (t *Tracker) Record(report coverage.Report, platform string) Snapshot {
	s := NewSnapshot(report, platform, t.now())
	t.RecordSnapshot(s)
	return s
}

func (t *Tracker) enforceCap() int {
	excess := len(t.snapshots) - t.max
	if excess <= 0 {
		return 0
	}
	t.snapshots = append([]Snapshot(nil), t.snapshots[excess:]...)
	logger.Debug("Dropped %d snapshots over the cap of %d", excess, t.max)
	return excess
}

// Len returns the number of retained snapshots.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snapshots)
}

// Snapshots returns the log oldest first, as it is persisted.
func (t *Tracker) Snapshots() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Snapshot(nil), t.snapshots...)
}

// History returns the log newest first.
func (t *Tracker) History() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Snapshot, len(t.snapshots))
	for i, s := range t.snapshots {
		out[len(out)-1-i] = s
	}
	return out
}

// Prune removes snapshots older than days and returns how many it removed.
func (t *Tracker) Prune(days int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-time.Duration(days) * 24 * time.Hour)
	kept := t.snapshots[:0:0]
	for _, s := range t.snapshots {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}

	removed := len(t.snapshots) - len(kept)
	t.snapshots = kept
	if removed > 0 {
		logger.Debug("Pruned %d snapshots older than %d days", removed, days)
	}
	return removed
}

// Trend compares the earliest and latest snapshot, by timestamp, among
// those taken within the last windowDays. It needs at least two.
func (t *Tracker) Trend(windowDays int) (Trend, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := t.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	var (
		first, last Snapshot
		samples     int
	)
	for _, s := range t.snapshots {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		if samples == 0 || s.Timestamp.Before(first.Timestamp) {
			first = s
		}
		if samples == 0 || !s.Timestamp.Before(last.Timestamp) {
			last = s
		}
		samples++
	}
	if samples < 2 {
		return Trend{}, false
	}

	// The band applies to the raw difference; only the reported change is rounded.
	diff := last.OverallPercentage - first.OverallPercentage
	dir := Stable
	switch {
	case math.Abs(diff) < stableBand:
	case diff > 0:
		dir = Improving
	default:
		dir = Declining
	}

	return Trend{
		Direction: dir,
		Change:    coverage.Round2(diff),
		From:      first,
		To:        last,
		Samples:   samples,
	}, true
}

// Stats reports the newest percentage and the peak, low and mean over
// everything retained.
func (t *Tracker) Stats() (Stats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.snapshots) == 0 {
		return Stats{}, false
	}

	peak, low := math.Inf(-1), math.Inf(1)
	sum := 0.0
	for _, s := range t.snapshots {
		peak = math.Max(peak, s.OverallPercentage)
		low = math.Min(low, s.OverallPercentage)
		sum += s.OverallPercentage
	}

	return Stats{
		Current: t.snapshots[len(t.snapshots)-1].OverallPercentage,
		Peak:    peak,
		Low:     low,
		Average: coverage.Round2(sum / float64(len(t.snapshots))),
		Count:   len(t.snapshots),
	}, true
}
