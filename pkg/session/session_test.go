package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raterudder/billcompare/pkg/consumption"
	"github.com/raterudder/billcompare/pkg/tariff"
	"github.com/raterudder/billcompare/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usageCSV = `timestamp,kWh
2024-01-15 20:00:00,50
2024-01-15 03:00:00,100
bad,7
2024-01-15 12:00:00,100
`

func newSession() *Session {
	return New(consumption.NewLoader(nil, nil), tariff.DefaultSchedule())
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()
	s := newSession()

	_, err := s.Calculate(ctx, Request{FlatRate: "0.25", FixedFee: "10"})
	assert.ErrorIs(t, err, ErrNoDataset)

	res, err := s.LoadReader(ctx, "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dataset.Len())
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, res.Excluded, s.Excluded())

	c, err := s.Calculate(ctx, Request{FlatRate: "0.25", FixedFee: "10"})
	require.NoError(t, err)
	require.Len(t, c.Bills, 3)

	costs := c.Costs()
	// 250 kWh * 0.25 + 10
	assert.InDelta(t, 72.5, costs[types.SchemeFlat], 1e-9)
	// 50*0.40 + 100*0.25 + 100*0.15 + 10
	assert.InDelta(t, 70.0, costs[types.SchemeTimeOfUse], 1e-9)
	// 100*0.20 + 150*0.30 + 10
	assert.InDelta(t, 75.0, costs[types.SchemeTiered], 1e-9)

	ds, ok := s.Dataset()
	require.True(t, ok)
	assert.Equal(t, 250.0, ds.TotalKWH())
	assert.Equal(t, 20, ds.Samples[0].Timestamp.Hour())
}

func TestCalculateInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newSession()
	_, err := s.LoadReader(ctx, "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)

	for _, req := range []Request{
		{FlatRate: "", FixedFee: "10"},
		{FlatRate: "abc", FixedFee: "10"},
		{FlatRate: "-0.1", FixedFee: "10"},
		{FlatRate: "0.25", FixedFee: "-1"},
		{FlatRate: "NaN", FixedFee: "10"},
		{FlatRate: "0.25", FixedFee: "+Inf"},
	} {
		_, err := s.Calculate(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", req)
	}
}

func TestParseRequest(t *testing.T) {
	rate, fee, err := ParseRequest(Request{FlatRate: " 0.3 ", FixedFee: "0"})
	require.NoError(t, err)
	assert.Equal(t, 0.3, rate)
	assert.Zero(t, fee)

	_, _, err = ParseRequest(Request{FlatRate: "0.3"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "fixed fee")
}

func TestLoadKeepsPreviousDataset(t *testing.T) {
	ctx := context.Background()
	s := newSession()

	_, err := s.LoadReader(ctx, "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)

	_, err = s.LoadReader(ctx, "broken.csv", strings.NewReader("when,energy\n1,2\n"))
	assert.ErrorIs(t, err, consumption.ErrMissingColumn)

	_, err = s.Load(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	ds, ok := s.Dataset()
	require.True(t, ok)
	assert.Equal(t, "usage.csv", ds.Source)
	assert.Equal(t, 3, ds.Len())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.csv")
	require.NoError(t, os.WriteFile(path, []byte(usageCSV), 0o600))

	s := newSession()
	res, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Dataset.Source)

	ds, ok := s.Dataset()
	require.True(t, ok)
	assert.Equal(t, res.Dataset, ds)
}

func TestUsage(t *testing.T) {
	s := newSession()
	_, err := s.Usage()
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = s.LoadReader(context.Background(), "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)

	usage, err := s.Usage()
	require.NoError(t, err)
	require.Len(t, usage, 3)
	assert.Equal(t, 3, usage[0].Timestamp.Hour())
	assert.Equal(t, types.PeriodOffPeak, usage[0].Period)
	assert.Equal(t, types.PeriodShoulder, usage[1].Period)
	assert.Equal(t, types.PeriodPeak, usage[2].Period)

	// the dataset keeps its input order
	ds, _ := s.Dataset()
	assert.Equal(t, 20, ds.Samples[0].Timestamp.Hour())
}

func TestExcludedIsCopy(t *testing.T) {
	s := newSession()
	_, err := s.LoadReader(context.Background(), "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)

	excluded := s.Excluded()
	require.Len(t, excluded, 1)
	excluded[0].Reason = "changed"

	assert.Equal(t, "invalid timestamp", s.Excluded()[0].Reason)
}

func TestCalculateOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := newSession()
	_, err := s.LoadReader(ctx, "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)

	_, err = s.Calculate(ctx, Request{FlatRate: "1e308", FixedFee: "10"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadOverflowKeepsPreviousDataset(t *testing.T) {
	ctx := context.Background()
	s := newSession()
	_, err := s.LoadReader(ctx, "usage.csv", strings.NewReader(usageCSV))
	require.NoError(t, err)

	_, err = s.LoadReader(ctx, "huge.csv", strings.NewReader("timestamp,kWh\n2024-01-15 20:00,1e308\n2024-01-15 21:00,1e308\n"))
	assert.ErrorIs(t, err, consumption.ErrOverflow)

	ds, ok := s.Dataset()
	require.True(t, ok)
	assert.Equal(t, "usage.csv", ds.Source)

	c, err := s.Calculate(ctx, Request{FlatRate: "0.25", FixedFee: "10"})
	require.NoError(t, err)
	assert.Equal(t, "$72.50", tariff.FormatDollars(c.Costs()[types.SchemeFlat]))
}
