package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput is returned when a rate or fee is not a finite,
	// non-negative number.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoDataset is returned when a comparison is requested before any
	// dataset was loaded.
	ErrNoDataset = errors.New("no dataset loaded")
)

// Request is a comparison request as typed by the user.
type Request struct {
	FlatRate string `json:"flatRate"`
	FixedFee string `json:"fixedFee"`
}

// ParseRequest converts the textual rate and fee into numbers.
func ParseRequest(req Request) (flatRate float64, fixedFee float64, err error) {
	flatRate, err = parseAmount("flat rate", req.FlatRate)
	if err != nil {
		return 0, 0, err
	}
	fixedFee, err = parseAmount("fixed fee", req.FixedFee)
	if err != nil {
		return 0, 0, err
	}
	return flatRate, fixedFee, nil
}

func parseAmount(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidInput, field, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
	}
	return v, nil
}
