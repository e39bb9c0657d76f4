package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/garage.gate/internal/garage"
)

func TestSummariseOccupancy(t *testing.T) {
	// 0 occupied for 10s, 1 for 10s, 3 (full) for 20s.
	series := []OccupancyPoint{
		{At: t0, Occupied: 0, Free: 3},
		{At: t0.Add(10 * time.Second), Occupied: 1, Free: 2},
		{At: t0.Add(20 * time.Second), Occupied: 3, Free: 0},
	}
	sum := SummariseOccupancy(series, t0.Add(40*time.Second))

	assert.InDelta(t, 1.75, sum.MeanOccupied, 1e-9)
	assert.Equal(t, 3, sum.PeakOccupied)
	assert.Equal(t, 3, sum.TotalSpaces)
	assert.InDelta(t, 0.5, sum.FullFraction, 1e-9)
	assert.Greater(t, sum.StdOccupied, 0.0)
}

func TestSummariseOccupancy_Empty(t *testing.T) {
	assert.Equal(t, OccupancySummary{}, SummariseOccupancy(nil, t0))
}

func TestSummariseOccupancy_SingleLevel(t *testing.T) {
	series := []OccupancyPoint{{At: t0, Occupied: 2, Free: 1}}
	sum := SummariseOccupancy(series, t0.Add(time.Minute))
	assert.InDelta(t, 2.0, sum.MeanOccupied, 1e-9)
	assert.InDelta(t, 0.0, sum.StdOccupied, 1e-9)
	assert.Zero(t, sum.FullFraction)
}

func TestOccupancy_FromJournal(t *testing.T) {
	db := newTestDB(t)

	record := func(kind garage.EventKind, free int, at time.Duration) {
		t.Helper()
		_, err := db.RecordEvent("run-1", event(kind, free, t0.Add(at)))
		require.NoError(t, err)
	}
	record(garage.EventStartup, 3, 0)
	record(garage.EventEntry, 2, 10*time.Second)
	record(garage.EventEntry, 1, 20*time.Second)
	record(garage.EventEntry, 0, 30*time.Second)
	record(garage.EventRejected, 0, 35*time.Second)
	record(garage.EventExit, 1, 40*time.Second)

	// The window opens after the first entry so the level at From comes
	// from the journal row before it.
	from := t0.Add(15 * time.Second)
	to := t0.Add(45 * time.Second)

	series, err := db.OccupancySeries(from, to)
	require.NoError(t, err)
	require.NotEmpty(t, series)
	assert.Equal(t, from, series[0].At)
	assert.Equal(t, 1, series[0].Occupied)

	sum, err := db.Occupancy(from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Entries)
	assert.Equal(t, 1, sum.Exits)
	assert.Equal(t, 1, sum.Rejections)
	assert.Equal(t, 3, sum.PeakOccupied)
	assert.Equal(t, 3, sum.TotalSpaces)
	// Full from 30s to 40s out of a 30s window.
	assert.InDelta(t, 1.0/3.0, sum.FullFraction, 1e-6)
}

func TestOccupancySeries_InvalidWindow(t *testing.T) {
	db := newTestDB(t)
	_, err := db.OccupancySeries(t0, t0)
	assert.Error(t, err)
}
