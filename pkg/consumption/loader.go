// Package consumption loads household consumption readings into a
// normalized dataset.
//
// The input is CSV with a header row. The timestamp column is found by name
// ignoring case and surrounding whitespace, as is the kWh column. Rows whose
// timestamp or kWh cannot be parsed are excluded and reported back to the
// caller instead of failing the load.
package consumption

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/billcompare/pkg/common"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/types"
)

const (
	ColumnTimestamp = "timestamp"
	ColumnKWH       = "kWh"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmpty         = errors.New("no header row")
	ErrOverflow      = errors.New("total kWh is too large")
)

// Loader parses consumption CSVs from readers, files or URLs.
type Loader struct {
	location *time.Location
	client   *http.Client
}

// NewLoader returns a Loader that interprets timestamps without an offset in
// loc. A nil loc means UTC and a nil client means common.HTTPClient.
func NewLoader(loc *time.Location, client *http.Client) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	if client == nil {
		client = common.HTTPClient(30 * time.Second)
	}
	return &Loader{location: loc, client: client}
}

// Configured registers the loader flags and returns the Loader that will be
// set up once flags are parsed.
func Configured() *Loader {
	location := lflag.String("timestamp-location", "UTC", "IANA time zone for consumption timestamps that have no offset")
	fetchTimeout := lflag.Duration("fetch-timeout", 30*time.Second, "Timeout when loading consumption data over HTTP")

	l := &Loader{}
	lflag.Do(func() {
		loc, err := time.LoadLocation(*location)
		if err != nil {
			panic(fmt.Sprintf("invalid timestamp-location %q: %v", *location, err))
		}
		l.location = loc
		l.client = common.HTTPClient(*fetchTimeout)
	})
	return l
}

// Open loads from src, which is either a file path or an http(s) URL.
func (l *Loader) Open(ctx context.Context, src string) (types.LoadResult, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return l.fetch(ctx, src)
	}

	f, err := os.Open(src)
	if err != nil {
		return types.LoadResult{}, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()
	return l.Load(ctx, src, f)
}

func (l *Loader) fetch(ctx context.Context, src string) (types.LoadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return types.LoadResult{}, fmt.Errorf("invalid url %s: %w", src, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := l.client.Do(req)
	if err != nil {
		return types.LoadResult{}, fmt.Errorf("failed to fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.LoadResult{}, fmt.Errorf("failed to fetch %s: unexpected status %s", src, resp.Status)
	}
	return l.Load(ctx, src, resp.Body)
}

// Load parses a CSV from r. name is recorded as the dataset source. An error
// is returned only when nothing usable could be read (no header, missing
// columns, malformed CSV); bad values in individual rows are excluded and
// listed in the result.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (types.LoadResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.LoadResult{}, fmt.Errorf("%s: %w", name, ErrEmpty)
	} else if err != nil {
		return types.LoadResult{}, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	tsIdx, kwhIdx, err := findColumns(header)
	if err != nil {
		return types.LoadResult{}, fmt.Errorf("%s: %w", name, err)
	}

	res := types.LoadResult{Dataset: types.Dataset{Source: name}}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.LoadResult{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)

		rawTS := strings.TrimSpace(record[tsIdx])
		ts, err := dateparse.ParseIn(rawTS, l.location)
		if err != nil {
			res.Excluded = append(res.Excluded, types.ExcludedRow{
				Line:   line,
				Column: ColumnTimestamp,
				Value:  rawTS,
				Reason: "invalid timestamp",
			})
			continue
		}

		rawKWH := strings.TrimSpace(record[kwhIdx])
		kwh, reason := parseKWH(rawKWH)
		if reason != "" {
			res.Excluded = append(res.Excluded, types.ExcludedRow{
				Line:   line,
				Column: ColumnKWH,
				Value:  rawKWH,
				Reason: reason,
			})
			continue
		}

		res.Dataset.Samples = append(res.Dataset.Samples, types.ConsumptionSample{
			Timestamp: ts,
			KWH:       kwh,
		})
	}

	if total := res.Dataset.TotalKWH(); math.IsInf(total, 0) || math.IsNaN(total) {
		return types.LoadResult{}, fmt.Errorf("%s: %w", name, ErrOverflow)
	}

	if len(res.Excluded) > 0 {
		log.Ctx(ctx).WarnContext(
			ctx,
			"some rows had invalid values and were dropped",
			slog.String("source", name),
			slog.Int("excluded", len(res.Excluded)),
			slog.Int("rows", res.Dataset.Len()),
		)
		for _, ex := range res.Excluded {
			log.Ctx(ctx).DebugContext(
				ctx,
				"excluded row",
				slog.Int("line", ex.Line),
				slog.String("column", ex.Column),
				slog.String("value", ex.Value),
				slog.String("reason", ex.Reason),
			)
		}
	}
	return res, nil
}

func findColumns(header []string) (int, int, error) {
	tsIdx, kwhIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if tsIdx < 0 && strings.EqualFold(name, ColumnTimestamp) {
			tsIdx = i
		}
		if kwhIdx < 0 && strings.EqualFold(name, ColumnKWH) {
			kwhIdx = i
		}
	}
	if tsIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnTimestamp)
	}
	if kwhIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnKWH)
	}
	return tsIdx, kwhIdx, nil
}

// parseKWH returns a non-empty reason when the value is not usable.
func parseKWH(s string) (float64, string) {
	if s == "" {
		return 0, "missing kWh"
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "invalid kWh"
	}
	if v < 0 {
		return 0, "negative kWh"
	}
	return v, ""
}
