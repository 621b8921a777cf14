package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/billcompare/pkg/consumption"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/tariff"
	"github.com/raterudder/billcompare/pkg/types"
)

// seed writes a synthetic hourly consumption CSV that can be fed to
// billcompare or compare.
func main() {
	out := lflag.String("out", "", "File to write, stdout when empty")
	start := lflag.String("start", "2024-01-01", "First day of the generated series (YYYY-MM-DD)")
	span := lflag.Duration("span", 30*24*time.Hour, "Length of the generated series")
	solar := lflag.Bool("solar", false, "Offset daytime usage with rooftop solar")
	lflag.Configure()

	ctx := context.Background()

	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid start", slog.String("start", *start), slog.Any("error", err))
		os.Exit(1)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to create output", slog.Any("error", err))
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	samples := generate(rng, first, first.Add(*span), *solar)
	if err := writeCSV(w, samples); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write samples", slog.Any("error", err))
		os.Exit(1)
	}

	ds := types.Dataset{Source: *out, Samples: samples}
	log.Ctx(ctx).InfoContext(
		ctx,
		"generated consumption",
		slog.Int("rows", ds.Len()),
		slog.String("totalKWH", fmt.Sprintf("%.2f", ds.TotalKWH())),
	)
}

func generate(rng *rand.Rand, from, to time.Time, solar bool) []types.ConsumptionSample {
	const (
		HomeAvgKW   = 0.6
		SolarPeakKW = 3.0
	)

	var samples []types.ConsumptionSample
	for t := from; t.Before(to); t = t.Add(time.Hour) {
		hour := t.Hour()

		homeKW := HomeAvgKW + rng.Float64()*0.4
		switch tariff.ClassifyPeriod(hour) {
		case types.PeriodPeak:
			homeKW += 1.5 // cooking and evening activities
		case types.PeriodShoulder:
			if hour < 9 {
				homeKW += 0.8 // breakfast
			}
		}

		// solar (bell curve) only offsets usage, nothing is exported
		if solar && hour > 6 && hour < 19 {
			dist := math.Abs(float64(hour) - 13.0)
			homeKW -= SolarPeakKW * math.Exp(-(dist*dist)/12.0)
		}
		samples = append(samples, types.ConsumptionSample{
			Timestamp: t,
			KWH:       math.Round(math.Max(homeKW, 0)*1000) / 1000,
		})
	}
	return samples
}

func writeCSV(w io.Writer, samples []types.ConsumptionSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{consumption.ColumnTimestamp, consumption.ColumnKWH}); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write([]string{
			s.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(s.KWH, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
