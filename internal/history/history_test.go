package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covlens/internal/coverage"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return now.Add(-time.Duration(d) * 24 * time.Hour)
}

func snap(ts time.Time, pct float64) Snapshot {
	return Snapshot{Timestamp: ts, OverallPercentage: pct}
}

func newTracker(capacity int) *Tracker {
	return NewTracker(capacity, WithClock(func() time.Time { return now }))
}

func TestNewSnapshot(t *testing.T) {
	report := coverage.Parse("SF:a\nDA:1,1\nDA:2,0\nend_of_record\nSF:b\nDA:1,1\nend_of_record\n")
	s := NewSnapshot(report, "linux", now)

	assert.Equal(t, now, s.Timestamp)
	assert.Equal(t, "linux", s.Platform)
	assert.Equal(t, 66.67, s.OverallPercentage)
	assert.Equal(t, 2, s.LinesHit)
	assert.Equal(t, 3, s.LinesFound)
	assert.Equal(t, []FileSnapshot{
		{File: "a", Percentage: 50, LinesHit: 1, LinesFound: 2},
		{File: "b", Percentage: 100, LinesHit: 1, LinesFound: 1},
	}, s.Files)
}

func TestRecordSnapshot_Cap(t *testing.T) {
	tr := newTracker(3)
	dropped := 0
	for i := 1; i <= 5; i++ {
		dropped += tr.RecordSnapshot(snap(daysAgo(10-i), float64(i)))
	}

	assert.Equal(t, 2, dropped)
	assert.Equal(t, 3, tr.Len())

	var pcts []float64
	for _, s := range tr.History() {
		pcts = append(pcts, s.OverallPercentage)
	}
	assert.Equal(t, []float64{5, 4, 3}, pcts)
}

func TestRecordSnapshot_FillsTimestamp(t *testing.T) {
	tr := newTracker(0)
	tr.RecordSnapshot(Snapshot{OverallPercentage: 1})
	assert.Equal(t, now, tr.History()[0].Timestamp)

	s := tr.Record(coverage.Parse("SF:a\nDA:1,1\nend_of_record\n"), "web")
	assert.Equal(t, "web", s.Platform)
	assert.Equal(t, 2, tr.Len())
}

func TestHistory_NewestFirstByInsertion(t *testing.T) {
	tr := newTracker(10)
	tr.RecordSnapshot(snap(daysAgo(1), 1))
	tr.RecordSnapshot(snap(daysAgo(5), 2))
	tr.RecordSnapshot(snap(daysAgo(3), 3))

	h := tr.History()
	require.Len(t, h, 3)
	assert.Equal(t, 3.0, h[0].OverallPercentage)
	assert.Equal(t, 1.0, h[2].OverallPercentage)

	assert.Equal(t, 1.0, tr.Snapshots()[0].OverallPercentage)
}

func TestPrune(t *testing.T) {
	tr := newTracker(10)
	tr.RecordSnapshot(snap(daysAgo(40), 1))
	tr.RecordSnapshot(snap(daysAgo(31), 2))
	tr.RecordSnapshot(snap(daysAgo(30), 3))
	tr.RecordSnapshot(snap(daysAgo(1), 4))

	assert.Equal(t, 2, tr.Prune(30))
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 0, tr.Prune(30))
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name  string
		snaps []Snapshot
		want  Direction
		delta float64
	}{
		{
			name:  "improving",
			snaps: []Snapshot{snap(daysAgo(6), 50), snap(daysAgo(1), 60)},
			want:  Improving,
			delta: 10,
		},
		{
			name:  "declining",
			snaps: []Snapshot{snap(daysAgo(6), 60), snap(daysAgo(1), 55.5)},
			want:  Declining,
			delta: -4.5,
		},
		{
			name:  "stable below threshold",
			snaps: []Snapshot{snap(daysAgo(6), 60), snap(daysAgo(1), 60.09)},
			want:  Stable,
			delta: 0.09,
		},
		{
			name:  "stable just below threshold before rounding",
			snaps: []Snapshot{snap(daysAgo(6), 50), snap(daysAgo(1), 50.0996)},
			want:  Stable,
			delta: 0.1,
		},
		{
			name:  "by timestamp not insertion",
			snaps: []Snapshot{snap(daysAgo(1), 70), snap(daysAgo(5), 40), snap(daysAgo(3), 10)},
			want:  Improving,
			delta: 30,
		},
		{
			name:  "outside window ignored",
			snaps: []Snapshot{snap(daysAgo(30), 0), snap(daysAgo(5), 50), snap(daysAgo(2), 49)},
			want:  Declining,
			delta: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(10)
			for _, s := range tt.snaps {
				tr.RecordSnapshot(s)
			}
			trend, ok := tr.Trend(7)
			require.True(t, ok)
			assert.Equal(t, tt.want, trend.Direction)
			assert.Equal(t, tt.delta, trend.Change)
		})
	}
}

func TestTrend_NeedsTwoSnapshots(t *testing.T) {
	tr := newTracker(10)
	_, ok := tr.Trend(7)
	assert.False(t, ok)

	tr.RecordSnapshot(snap(daysAgo(20), 10))
	tr.RecordSnapshot(snap(daysAgo(1), 20))
	_, ok = tr.Trend(7)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	tr := newTracker(10)
	_, ok := tr.Stats()
	assert.False(t, ok)

	tr.RecordSnapshot(snap(daysAgo(90), 10))
	tr.RecordSnapshot(snap(daysAgo(2), 80))
	tr.RecordSnapshot(snap(daysAgo(1), 45))

	st, ok := tr.Stats()
	require.True(t, ok)
	assert.Equal(t, Stats{Current: 45, Peak: 80, Low: 10, Average: 45, Count: 3}, st)
}

func TestRestore_AppliesCap(t *testing.T) {
	tr := newTracker(2)
	tr.Restore([]Snapshot{snap(daysAgo(3), 1), snap(daysAgo(2), 2), snap(daysAgo(1), 3)})
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 3.0, tr.History()[0].OverallPercentage)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	store := NewFileStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	snaps := []Snapshot{
		NewSnapshot(coverage.Parse("SF:a\nDA:1,1\nend_of_record\n"), "linux", daysAgo(2)),
		snap(daysAgo(1), 12.5),
	}
	require.NoError(t, store.Save(snaps))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, snaps[0].Timestamp.Equal(loaded[0].Timestamp))
	assert.Equal(t, "linux", loaded[0].Platform)
	assert.Equal(t, 12.5, loaded[1].OverallPercentage)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Errors(t *testing.T) {
	_, err := NewFileStore("").Load()
	assert.ErrorIs(t, err, ErrNoPath)
	assert.ErrorIs(t, NewFileStore("").Save(nil), ErrNoPath)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = NewFileStore(path).Load()
	assert.Error(t, err)
}
