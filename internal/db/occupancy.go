package db

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/garage.gate/internal/garage"
)

// OccupancyPoint is the occupied-space count in effect from At until the
// next point.
type OccupancyPoint struct {
	At       time.Time `json:"at"`
	Occupied int       `json:"occupied"`
	Free     int       `json:"free"`
}

// OccupancySummary aggregates the journal over a window. Means and the
// standard deviation are weighted by how long each occupancy level held.
type OccupancySummary struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TotalSpaces  int       `json:"total_spaces"`
	MeanOccupied float64   `json:"mean_occupied"`
	StdOccupied  float64   `json:"std_occupied"`
	PeakOccupied int       `json:"peak_occupied"`
	FullFraction float64   `json:"full_fraction"`
	Entries      int       `json:"entries"`
	Exits        int       `json:"exits"`
	Rejections   int       `json:"rejections"`
}

// OccupancySeries returns the step series for [from, to]. The level in force
// at from is taken from the last event before the window, if any.
func (db *DB) OccupancySeries(from, to time.Time) ([]OccupancyPoint, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("invalid window: %s is not after %s", to, from)
	}

	prior, ok, err := db.LastEventBefore(from)
	if err != nil {
		return nil, err
	}
	events, err := db.EventsSince(from)
	if err != nil {
		return nil, err
	}

	var series []OccupancyPoint
	if ok {
		series = append(series, pointFor(from, prior.TotalSpaces, prior.FreeSpaces))
	}
	for _, e := range events {
		if e.RecordedAt.After(to) {
			break
		}
		series = append(series, pointFor(e.RecordedAt, e.TotalSpaces, e.FreeSpaces))
	}
	return series, nil
}

func pointFor(at time.Time, total, free int) OccupancyPoint {
	return OccupancyPoint{At: at, Occupied: total - free, Free: free}
}

// Occupancy summarises the journal over [from, to].
func (db *DB) Occupancy(from, to time.Time) (OccupancySummary, error) {
	series, err := db.OccupancySeries(from, to)
	if err != nil {
		return OccupancySummary{}, err
	}
	events, err := db.EventsSince(from)
	if err != nil {
		return OccupancySummary{}, err
	}

	sum := SummariseOccupancy(series, to)
	sum.From, sum.To = from, to
	for _, e := range events {
		if e.RecordedAt.After(to) {
			break
		}
		sum.TotalSpaces = e.TotalSpaces
		switch e.Kind {
		case garage.EventEntry:
			sum.Entries++
		case garage.EventExit:
			sum.Exits++
		case garage.EventRejected:
			sum.Rejections++
		}
	}
	return sum, nil
}

// SummariseOccupancy computes the time-weighted statistics of a step series
// that ends at end. Event counts and the window bounds are left to the caller.
func SummariseOccupancy(series []OccupancyPoint, end time.Time) OccupancySummary {
	var sum OccupancySummary
	if len(series) == 0 {
		return sum
	}

	x := make([]float64, 0, len(series))
	w := make([]float64, 0, len(series))
	var fullSecs float64
	for i, p := range series {
		next := end
		if i+1 < len(series) {
			next = series[i+1].At
		}
		d := next.Sub(p.At).Seconds()
		if d <= 0 {
			continue
		}
		x = append(x, float64(p.Occupied))
		w = append(w, d)
		if p.Free <= 0 {
			fullSecs += d
		}
		sum.TotalSpaces = p.Occupied + p.Free
	}

	occupied := make([]float64, len(series))
	for i, p := range series {
		occupied[i] = float64(p.Occupied)
	}
	sum.PeakOccupied = int(floats.Max(occupied))

	if len(x) == 0 {
		return sum
	}
	sum.MeanOccupied, sum.StdOccupied = stat.PopMeanStdDev(x, w)
	if total := floats.Sum(w); total > 0 {
		sum.FullFraction = fullSecs / total
	}
	return sum
}
