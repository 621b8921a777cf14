package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/raterudder/billcompare/pkg/types"
)

var (
	DatasetsLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billcompare_datasets_loaded_total",
			Help: "Total number of consumption datasets loaded successfully",
		},
	)

	DatasetLoadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billcompare_dataset_load_failures_total",
			Help: "Total number of consumption datasets that failed to load",
		},
	)

	RowsLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billcompare_rows_loaded_total",
			Help: "Total number of consumption rows accepted into datasets",
		},
	)

	RowsExcludedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billcompare_rows_excluded_total",
			Help: "Total number of consumption rows excluded per offending column",
		},
		[]string{"column"},
	)

	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billcompare_comparisons_total",
			Help: "Total number of comparison requests per outcome",
		},
		[]string{"outcome"},
	)

	BillCostDollars = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billcompare_bill_cost_dollars",
			Help:    "Computed bill totals per scheme",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"scheme"},
	)
)

// Comparison outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNoDataset    = "no_dataset"
)

// ObserveLoad records a successful load and the rows it excluded.
func ObserveLoad(res types.LoadResult) {
	DatasetsLoadedTotal.Inc()
	RowsLoadedTotal.Add(float64(res.Dataset.Len()))
	for _, ex := range res.Excluded {
		RowsExcludedTotal.WithLabelValues(ex.Column).Inc()
	}
}

// ObserveComparison records a completed comparison.
func ObserveComparison(c types.Comparison) {
	ComparisonsTotal.WithLabelValues(OutcomeOK).Inc()
	for s, b := range c.Bills {
		BillCostDollars.WithLabelValues(string(s)).Observe(b.Cost)
	}
}
