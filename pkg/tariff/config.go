package tariff

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/billcompare/pkg/types"
)

// Schedule holds the time-of-use rates and tier blocks used for every
// comparison. The flat rate and fixed fee are supplied per request.
type Schedule struct {
	TOU   map[types.Period]float64
	Tiers []types.Tier
}

// DefaultSchedule returns the example household tariffs.
func DefaultSchedule() Schedule {
	return Schedule{
		TOU: map[types.Period]float64{
			types.PeriodPeak:     0.40,
			types.PeriodShoulder: 0.25,
			types.PeriodOffPeak:  0.15,
		},
		Tiers: []types.Tier{
			{Threshold: 100, DollarsPerKWH: 0.20},
			{Threshold: 300, DollarsPerKWH: 0.30},
			{Threshold: math.Inf(1), DollarsPerKWH: 0.40},
		},
	}
}

// Plan combines the schedule with per-request flat rate and fixed fee.
func (s Schedule) Plan(flatDollarsPerKWH, fixedFee float64) Plan {
	return Plan{
		FlatDollarsPerKWH: flatDollarsPerKWH,
		TOU:               s.TOU,
		Tiers:             s.Tiers,
		FixedFee:          fixedFee,
	}
}

// Validate checks the invariants the calculators rely on.
func (s Schedule) Validate() error {
	for p, rate := range s.TOU {
		if !knownPeriod(p) {
			return fmt.Errorf("unknown period: %q", p)
		}
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return fmt.Errorf("invalid rate for %s: %v", p, rate)
		}
	}
	if len(s.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}
	var last float64
	for i, t := range s.Tiers {
		if math.IsNaN(t.Threshold) || t.Threshold <= last {
			return fmt.Errorf("tier %d threshold %v must be greater than %v", i+1, t.Threshold, last)
		}
		if t.DollarsPerKWH < 0 || math.IsNaN(t.DollarsPerKWH) || math.IsInf(t.DollarsPerKWH, 0) {
			return fmt.Errorf("invalid rate for tier %d: %v", i+1, t.DollarsPerKWH)
		}
		last = t.Threshold
	}
	if !s.Tiers[len(s.Tiers)-1].Unbounded() {
		return fmt.Errorf("last tier must be unbounded (threshold = inf)")
	}
	return nil
}

func knownPeriod(p types.Period) bool {
	for _, known := range types.Periods {
		if p == known {
			return true
		}
	}
	return false
}

type scheduleFile struct {
	TOU   map[string]float64 `toml:"tou"`
	Tiers []tierFile         `toml:"tiers"`
}

// tierFile keeps Threshold as a pointer so an omitted threshold can be told
// apart from an explicit zero.
type tierFile struct {
	Threshold *float64 `toml:"threshold"`
	Rate      float64  `toml:"rate"`
}

// LoadSchedule decodes a TOML schedule. Sections missing from the file keep
// their defaults. A last tier without a threshold is treated as unbounded.
//
//	[tou]
//	Peak = 0.40
//	Shoulder = 0.25
//	"Off-Peak" = 0.15
//
//	[[tiers]]
//	threshold = 100
//	rate = 0.20
//
//	[[tiers]]
//	threshold = inf
//	rate = 0.40
func LoadSchedule(r io.Reader) (Schedule, error) {
	var f scheduleFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to decode tariff schedule: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Schedule{}, fmt.Errorf("unknown keys in tariff schedule: %s", strings.Join(keys, ", "))
	}

	s := DefaultSchedule()
	if f.TOU != nil {
		s.TOU = make(map[types.Period]float64, len(f.TOU))
		for name, rate := range f.TOU {
			p, err := types.ParsePeriod(name)
			if err != nil {
				return Schedule{}, err
			}
			s.TOU[p] = rate
		}
	}
	if f.Tiers != nil {
		s.Tiers = make([]types.Tier, len(f.Tiers))
		for i, t := range f.Tiers {
			threshold := math.Inf(1)
			if t.Threshold != nil {
				threshold = *t.Threshold
			} else if i < len(f.Tiers)-1 {
				return Schedule{}, fmt.Errorf("invalid tariff schedule: tier %d is missing a threshold", i+1)
			}
			s.Tiers[i] = types.Tier{Threshold: threshold, DollarsPerKWH: t.Rate}
		}
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, fmt.Errorf("invalid tariff schedule: %w", err)
	}
	return s, nil
}

// LoadScheduleFile reads a TOML schedule from disk.
func LoadScheduleFile(path string) (Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to open tariff file: %w", err)
	}
	defer f.Close()
	return LoadSchedule(f)
}

// Configured registers the tariff flags and returns the schedule that will
// be populated once flags are parsed.
func Configured() *Schedule {
	file := lflag.String("tariff-file", "", "TOML file overriding the default time-of-use rates and tiers")

	s := &Schedule{}
	lflag.Do(func() {
		if *file == "" {
			*s = DefaultSchedule()
			return
		}
		loaded, err := LoadScheduleFile(*file)
		if err != nil {
			panic(fmt.Sprintf("tariff file %s: %v", *file, err))
		}
		*s = loaded
	})
	return s
}
