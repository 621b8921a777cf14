package tariff

import (
	"math"

	"github.com/raterudder/billcompare/pkg/types"
)

// Tiered apportions the total consumption across ascending blocks. Each
// block holds up to its threshold minus the previous threshold; the last
// block is expected to be unbounded. Only blocks that receive consumption
// appear in the breakdown.
//
// The tier list is trusted: it must be non-empty with strictly increasing
// thresholds.
func Tiered(ds types.Dataset, rates types.TieredRates) types.Bill {
	bill := types.Bill{Scheme: types.SchemeTiered}

	remaining := ds.TotalKWH()
	var total, lastThreshold float64
	for _, tier := range rates.Tiers {
		if remaining <= 0 {
			break
		}
		amount := math.Min(remaining, tier.Threshold-lastThreshold)
		total += amount * tier.DollarsPerKWH
		bill.Tiers = append(bill.Tiers, types.TierBreakdown{
			KWH:           amount,
			DollarsPerKWH: tier.DollarsPerKWH,
		})
		remaining -= amount
		lastThreshold = tier.Threshold
	}

	bill.Cost = total + rates.FixedFee
	return bill
}
