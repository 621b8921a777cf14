package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/billcompare/pkg/consumption"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/session"
	"github.com/raterudder/billcompare/pkg/tariff"
	"github.com/raterudder/billcompare/pkg/types"
)

func main() {
	loader := consumption.Configured()
	schedule := tariff.Configured()
	file := lflag.RequiredString("file", "Consumption CSV to compare, either a path or an http(s) URL")
	flatRate := lflag.String("flat-rate", "0.25", "Flat rate in $/kWh")
	fixedFee := lflag.String("fixed-fee", "10", "Fixed fee in $ added to every scheme")
	asJSON := lflag.Bool("json", false, "Print the full comparison as JSON")
	lflag.Configure()

	level, err := log.LevelFromLLog()
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)

	ctx := context.Background()
	sess := session.New(loader, *schedule)

	res, err := sess.Load(ctx, *file)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load consumption", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}
	for _, ex := range res.Excluded {
		fmt.Fprintf(os.Stderr, "warning: line %d: %s %q\n", ex.Line, ex.Reason, ex.Value)
	}

	c, err := sess.Calculate(ctx, session.Request{FlatRate: *flatRate, FixedFee: *fixedFee})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if !*asJSON {
		fmt.Println(tariff.Summary(c))
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Source   string                  `json:"source"`
		Costs    map[types.Scheme]string `json:"costs"`
		Bills    []types.Bill            `json:"bills"`
		Excluded []types.ExcludedRow     `json:"excluded,omitempty"`
	}{
		Source:   res.Dataset.Source,
		Costs:    tariff.Costs(c),
		Bills:    c.Ordered(),
		Excluded: res.Excluded,
	}); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write comparison", slog.Any("error", err))
		os.Exit(1)
	}
}
