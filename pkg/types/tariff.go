package types

import (
	"fmt"
	"math"
	"strings"
)

// Period is a time-of-use period label.
type Period string

const (
	PeriodPeak     Period = "Peak"
	PeriodOffPeak  Period = "Off-Peak"
	PeriodShoulder Period = "Shoulder"
)

// Periods lists every period in the order they are reported.
var Periods = []Period{PeriodPeak, PeriodShoulder, PeriodOffPeak}

// ParsePeriod matches a period label case-insensitively, ignoring
// surrounding whitespace.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	for _, p := range Periods {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period: %q", s)
}

// FlatRate is a single price per kWh plus a fixed fee.
type FlatRate struct {
	DollarsPerKWH float64 `json:"dollarsPerKWH"`
	FixedFee      float64 `json:"fixedFee"`
}

// TOURates maps each time-of-use period to its price per kWh. Periods that
// are missing from the map are not billed.
type TOURates struct {
	DollarsPerKWH map[Period]float64 `json:"dollarsPerKWH"`
	FixedFee      float64            `json:"fixedFee"`
}

// Tier is one block of a tiered schedule. Threshold is cumulative, so a tier
// covers consumption between the previous tier's threshold and its own.
type Tier struct {
	Threshold     float64 `json:"threshold"`
	DollarsPerKWH float64 `json:"dollarsPerKWH"`
}

// Unbounded reports whether the tier absorbs all remaining consumption.
func (t Tier) Unbounded() bool {
	return math.IsInf(t.Threshold, 1)
}

// TieredRates is an ordered block schedule plus a fixed fee. Thresholds
// must be strictly increasing and the last one should be +Inf.
type TieredRates struct {
	Tiers    []Tier  `json:"tiers"`
	FixedFee float64 `json:"fixedFee"`
}
