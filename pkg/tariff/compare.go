package tariff

import (
	"github.com/raterudder/billcompare/pkg/types"
)

// Plan is the set of parameters for one comparison. The fixed fee is shared
// by all three schemes.
type Plan struct {
	FlatDollarsPerKWH float64
	TOU               map[types.Period]float64
	Tiers             []types.Tier
	FixedFee          float64
}

// Compare prices the dataset under the flat, time-of-use and tiered
// schemes. The calculators share nothing but the read-only dataset so the
// order they run in does not matter.
func Compare(ds types.Dataset, plan Plan) types.Comparison {
	flat := Flat(ds, types.FlatRate{
		DollarsPerKWH: plan.FlatDollarsPerKWH,
		FixedFee:      plan.FixedFee,
	})
	tou := TimeOfUse(ds, types.TOURates{
		DollarsPerKWH: plan.TOU,
		FixedFee:      plan.FixedFee,
	})
	tiered := Tiered(ds, types.TieredRates{
		Tiers:    plan.Tiers,
		FixedFee: plan.FixedFee,
	})
	return types.Comparison{
		Bills: map[types.Scheme]types.Bill{
			flat.Scheme:   flat,
			tou.Scheme:    tou,
			tiered.Scheme: tiered,
		},
	}
}
