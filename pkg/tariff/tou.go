package tariff

import (
	"github.com/raterudder/billcompare/pkg/types"
)

// TimeOfUse prices each sample by the period its hour falls in.
//
// kWh are summed per period in input order and the sub-costs are added in
// types.Periods order before the fixed fee. Every configured period is
// reported even when nothing was consumed in it. Consumption in a period
// without a configured rate is reported with a zero rate and marked
// Unbilled; it never adds to the cost.
func TimeOfUse(ds types.Dataset, rates types.TOURates) types.Bill {
	kwh := make(map[types.Period]float64, len(types.Periods))
	seen := make(map[types.Period]bool, len(types.Periods))
	for _, s := range Annotate(ds) {
		kwh[s.Period] += s.KWH
		seen[s.Period] = true
	}

	bill := types.Bill{Scheme: types.SchemeTimeOfUse}
	var total float64
	for _, p := range types.Periods {
		rate, configured := rates.DollarsPerKWH[p]
		if !configured {
			if seen[p] {
				bill.Periods = append(bill.Periods, types.PeriodBreakdown{
					Period:   p,
					KWH:      kwh[p],
					Unbilled: true,
				})
			}
			continue
		}
		cost := kwh[p] * rate
		total += cost
		bill.Periods = append(bill.Periods, types.PeriodBreakdown{
			Period:        p,
			KWH:           kwh[p],
			DollarsPerKWH: rate,
			Cost:          cost,
		})
	}
	bill.Cost = total + rates.FixedFee
	return bill
}
