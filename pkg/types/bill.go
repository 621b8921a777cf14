package types

// Scheme names a tariff scheme in a comparison.
type Scheme string

const (
	SchemeFlat      Scheme = "Flat Rate"
	SchemeTimeOfUse Scheme = "Time-of-Use"
	SchemeTiered    Scheme = "Tiered"
)

// Schemes is the order schemes are displayed in.
var Schemes = []Scheme{SchemeFlat, SchemeTimeOfUse, SchemeTiered}

// PeriodSample is a sample annotated with the time-of-use period it falls
// in.
type PeriodSample struct {
	ConsumptionSample
	Period Period `json:"period"`
}

// PeriodBreakdown is the time-of-use cost for a single period.
type PeriodBreakdown struct {
	Period        Period  `json:"period"`
	KWH           float64 `json:"kWh"`
	DollarsPerKWH float64 `json:"dollarsPerKWH"`
	Cost          float64 `json:"cost"`
	// Unbilled is set when consumption was observed in a period that has
	// no configured rate.
	Unbilled bool `json:"unbilled,omitempty"`
}

// TierBreakdown is the consumption charged within a single block.
type TierBreakdown struct {
	KWH           float64 `json:"kWh"`
	DollarsPerKWH float64 `json:"dollarsPerKWH"`
}

// Bill is the result of pricing a dataset under one scheme. Periods is set
// for time-of-use bills and Tiers for tiered bills.
type Bill struct {
	Scheme  Scheme            `json:"scheme"`
	Cost    float64           `json:"cost"`
	Periods []PeriodBreakdown `json:"periods,omitempty"`
	Tiers   []TierBreakdown   `json:"tiers,omitempty"`
}

// Comparison holds one bill per scheme.
type Comparison struct {
	Bills map[Scheme]Bill `json:"bills"`
}

// Costs returns the total cost keyed by scheme.
func (c Comparison) Costs() map[Scheme]float64 {
	out := make(map[Scheme]float64, len(c.Bills))
	for s, b := range c.Bills {
		out[s] = b.Cost
	}
	return out
}

// Ordered returns the bills in display order.
func (c Comparison) Ordered() []Bill {
	out := make([]Bill, 0, len(c.Bills))
	for _, s := range Schemes {
		if b, ok := c.Bills[s]; ok {
			out = append(out, b)
		}
	}
	return out
}
