package types

import (
	"sort"
	"time"
)

// ConsumptionSample is the energy consumed in the interval ending at (or
// represented by) Timestamp.
type ConsumptionSample struct {
	Timestamp time.Time `json:"timestamp"`
	KWH       float64   `json:"kWh"`
}

// Dataset is the normalized set of samples loaded from a single source. The
// samples keep their input order, which is not necessarily chronological.
type Dataset struct {
	Source  string              `json:"source"`
	Samples []ConsumptionSample `json:"samples"`
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	return len(d.Samples)
}

// TotalKWH sums every sample in input order.
func (d Dataset) TotalKWH() float64 {
	var total float64
	for _, s := range d.Samples {
		total += s.KWH
	}
	return total
}

// SortedByTime returns a chronologically sorted copy of the samples. The
// dataset itself is left in input order.
func (d Dataset) SortedByTime() []ConsumptionSample {
	out := make([]ConsumptionSample, len(d.Samples))
	copy(out, d.Samples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ExcludedRow describes an input row that was dropped while loading.
type ExcludedRow struct {
	// Line is the 1-based line number in the source, counting the header.
	Line   int    `json:"line"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// LoadResult carries the valid dataset alongside the rows that were
// excluded so the caller can decide whether to warn, abort or proceed.
type LoadResult struct {
	Dataset  Dataset       `json:"dataset"`
	Excluded []ExcludedRow `json:"excluded"`
}
