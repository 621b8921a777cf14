// Package session holds the dataset a user is working with and runs
// comparisons against it.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/raterudder/billcompare/pkg/consumption"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/metrics"
	"github.com/raterudder/billcompare/pkg/tariff"
	"github.com/raterudder/billcompare/pkg/types"
)

// Session owns at most one loaded dataset. It is safe for concurrent use.
type Session struct {
	loader   *consumption.Loader
	schedule tariff.Schedule

	mu       sync.RWMutex
	loaded   bool
	dataset  types.Dataset
	excluded []types.ExcludedRow
}

// New returns an empty Session.
func New(loader *consumption.Loader, schedule tariff.Schedule) *Session {
	return &Session{
		loader:   loader,
		schedule: schedule,
	}
}

// Load reads the dataset from a file path or URL and replaces the current
// one. On error the previous dataset is kept.
func (s *Session) Load(ctx context.Context, src string) (types.LoadResult, error) {
	res, err := s.loader.Open(ctx, src)
	return s.store(ctx, res, err)
}

// LoadReader is like Load but reads from r.
func (s *Session) LoadReader(ctx context.Context, name string, r io.Reader) (types.LoadResult, error) {
	res, err := s.loader.Load(ctx, name, r)
	return s.store(ctx, res, err)
}

func (s *Session) store(ctx context.Context, res types.LoadResult, err error) (types.LoadResult, error) {
	if err != nil {
		metrics.DatasetLoadFailuresTotal.Inc()
		log.Ctx(ctx).ErrorContext(ctx, "failed to load dataset", slog.Any("error", err))
		return types.LoadResult{}, err
	}
	metrics.ObserveLoad(res)

	s.mu.Lock()
	s.loaded = true
	s.dataset = res.Dataset
	s.excluded = res.Excluded
	s.mu.Unlock()

	log.Ctx(ctx).InfoContext(
		ctx,
		"loaded dataset",
		slog.String("source", res.Dataset.Source),
		slog.Int("rows", res.Dataset.Len()),
		slog.Int("excluded", len(res.Excluded)),
	)
	return res, nil
}

// Dataset returns the current dataset and whether one is loaded. The samples
// are shared with the session and must not be modified.
func (s *Session) Dataset() (types.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset, s.loaded
}

// Excluded returns a copy of the rows dropped by the last successful load.
func (s *Session) Excluded() []types.ExcludedRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.excluded)
}

// Usage returns the loaded samples sorted by time and annotated with their
// time-of-use period.
func (s *Session) Usage() ([]types.PeriodSample, error) {
	ds, ok := s.Dataset()
	if !ok {
		return nil, ErrNoDataset
	}
	return tariff.Annotate(types.Dataset{Source: ds.Source, Samples: ds.SortedByTime()}), nil
}

// Calculate validates the request and compares all schemes against the
// loaded dataset.
func (s *Session) Calculate(ctx context.Context, req Request) (types.Comparison, error) {
	flatRate, fixedFee, err := ParseRequest(req)
	if err != nil {
		metrics.ComparisonsTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		return types.Comparison{}, err
	}

	ds, ok := s.Dataset()
	if !ok {
		metrics.ComparisonsTotal.WithLabelValues(metrics.OutcomeNoDataset).Inc()
		return types.Comparison{}, ErrNoDataset
	}

	c := tariff.Compare(ds, s.schedule.Plan(flatRate, fixedFee))
	for _, b := range c.Bills {
		if math.IsInf(b.Cost, 0) || math.IsNaN(b.Cost) {
			metrics.ComparisonsTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
			return types.Comparison{}, fmt.Errorf("%w: %s bill is out of range", ErrInvalidInput, b.Scheme)
		}
	}
	metrics.ObserveComparison(c)

	log.Ctx(ctx).DebugContext(
		ctx,
		"compared tariffs",
		slog.String("source", ds.Source),
		slog.Float64("flatRate", flatRate),
		slog.Float64("fixedFee", fixedFee),
		slog.Any("costs", c.Costs()),
	)
	return c, nil
}
