package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/session"
	"github.com/raterudder/billcompare/pkg/types"
)

type datasetResponse struct {
	Source   string              `json:"source"`
	Rows     int                 `json:"rows"`
	TotalKWH float64             `json:"totalKWH"`
	Excluded []types.ExcludedRow `json:"excluded"`
}

func newDatasetResponse(ds types.Dataset, excluded []types.ExcludedRow) datasetResponse {
	if excluded == nil {
		excluded = []types.ExcludedRow{}
	}
	return datasetResponse{
		Source:   ds.Source,
		Rows:     ds.Len(),
		TotalKWH: ds.TotalKWH(),
		Excluded: excluded,
	}
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ds, ok := sess.Dataset()
	if !ok {
		writeJSONError(w, session.ErrNoDataset.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newDatasetResponse(ds, sess.Excluded()))
}

func (s *Server) handlePutDataset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}

	body := http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	res, err := sess.LoadReader(ctx, name, body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, "dataset too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Ctx(ctx).WarnContext(ctx, "rejected dataset upload", slog.String("name", name), slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, newDatasetResponse(res.Dataset, res.Excluded))
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	usage, err := sess.Usage()
	if errors.Is(err, session.ErrNoDataset) {
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	} else if err != nil {
		log.Ctx(r.Context()).ErrorContext(r.Context(), "failed to get usage", slog.Any("error", err))
		writeJSONError(w, "failed to get usage", http.StatusInternalServerError)
		return
	}
	if usage == nil {
		usage = []types.PeriodSample{}
	}
	writeJSON(w, http.StatusOK, usage)
}
