package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raterudder/billcompare/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestObserveLoad(t *testing.T) {
	loaded := testutil.ToFloat64(DatasetsLoadedTotal)
	rows := testutil.ToFloat64(RowsLoadedTotal)
	excluded := testutil.ToFloat64(RowsExcludedTotal.WithLabelValues("timestamp"))

	ObserveLoad(types.LoadResult{
		Dataset: types.Dataset{Samples: []types.ConsumptionSample{
			{Timestamp: time.Now(), KWH: 1},
			{Timestamp: time.Now(), KWH: 2},
		}},
		Excluded: []types.ExcludedRow{{Line: 3, Column: "timestamp", Value: "bad"}},
	})

	assert.Equal(t, loaded+1, testutil.ToFloat64(DatasetsLoadedTotal))
	assert.Equal(t, rows+2, testutil.ToFloat64(RowsLoadedTotal))
	assert.Equal(t, excluded+1, testutil.ToFloat64(RowsExcludedTotal.WithLabelValues("timestamp")))
}

func TestObserveComparison(t *testing.T) {
	ok := testutil.ToFloat64(ComparisonsTotal.WithLabelValues(OutcomeOK))

	ObserveComparison(types.Comparison{Bills: map[types.Scheme]types.Bill{
		types.SchemeFlat: {Scheme: types.SchemeFlat, Cost: 42},
	}})

	assert.Equal(t, ok+1, testutil.ToFloat64(ComparisonsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(BillCostDollars))
}
