package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/session"
	"github.com/raterudder/billcompare/pkg/tariff"
	"github.com/raterudder/billcompare/pkg/types"
)

type compareResponse struct {
	Costs map[types.Scheme]string `json:"costs"`
	Bills []types.Bill            `json:"bills"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()

	var req session.Request
	if r.ContentLength != 0 {
		body := http.MaxBytesReader(w, r.Body, maxCompareBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.FlatRate == "" {
		req.FlatRate = s.defaultFlatRate
	}
	if req.FixedFee == "" {
		req.FixedFee = s.defaultFixedFee
	}

	c, err := sess.Calculate(ctx, req)
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, session.ErrNoDataset):
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Ctx(ctx).ErrorContext(ctx, "failed to compare tariffs", slog.Any("error", err))
		writeJSONError(w, "failed to compare tariffs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{
		Costs: tariff.Costs(c),
		Bills: c.Ordered(),
	})
}

type tierView struct {
	// Threshold is null for the unbounded last tier.
	Threshold     *float64 `json:"threshold"`
	DollarsPerKWH float64  `json:"dollarsPerKWH"`
}

type scheduleResponse struct {
	TOU             map[types.Period]float64 `json:"tou"`
	Tiers           []tierView               `json:"tiers"`
	DefaultFlatRate string                   `json:"defaultFlatRate"`
	DefaultFixedFee string                   `json:"defaultFixedFee"`
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	resp := scheduleResponse{
		TOU:             s.schedule.TOU,
		Tiers:           make([]tierView, 0, len(s.schedule.Tiers)),
		DefaultFlatRate: s.defaultFlatRate,
		DefaultFixedFee: s.defaultFixedFee,
	}
	for _, t := range s.schedule.Tiers {
		v := tierView{DollarsPerKWH: t.DollarsPerKWH}
		if !t.Unbounded() {
			threshold := t.Threshold
			v.Threshold = &threshold
		}
		resp.Tiers = append(resp.Tiers, v)
	}
	writeJSON(w, http.StatusOK, resp)
}
