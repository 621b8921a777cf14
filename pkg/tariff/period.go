package tariff

import (
	"github.com/raterudder/billcompare/pkg/types"
)

// ClassifyPeriod returns the time-of-use period for an hour of the day.
// Peak is 18:00 up to 22:00, Off-Peak is 22:00 up to 07:00 (wrapping past
// midnight) and everything else is Shoulder.
func ClassifyPeriod(hour int) types.Period {
	switch {
	case hour >= 18 && hour < 22:
		return types.PeriodPeak
	case hour >= 22 || hour < 7:
		return types.PeriodOffPeak
	default:
		return types.PeriodShoulder
	}
}

// Annotate labels each sample with its period. The hour is taken from the
// sample's own timestamp location. A new slice is returned and the dataset
// is not modified.
func Annotate(ds types.Dataset) []types.PeriodSample {
	out := make([]types.PeriodSample, len(ds.Samples))
	for i, s := range ds.Samples {
		out[i] = types.PeriodSample{
			ConsumptionSample: s,
			Period:            ClassifyPeriod(s.Timestamp.Hour()),
		}
	}
	return out
}
