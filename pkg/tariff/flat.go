package tariff

import (
	"github.com/raterudder/billcompare/pkg/types"
)

// Flat prices the whole dataset at a single rate. Inputs are not validated;
// a negative rate or fee is carried through to the result.
func Flat(ds types.Dataset, rate types.FlatRate) types.Bill {
	return types.Bill{
		Scheme: types.SchemeFlat,
		Cost:   ds.TotalKWH()*rate.DollarsPerKWH + rate.FixedFee,
	}
}
