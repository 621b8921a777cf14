package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/raterudder/billcompare/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutDataset(t *testing.T) {
	h := newTestServer().setupHandler()
	id := createSession(t, h)

	w := serve(t, h, http.MethodGet, "/api/sessions/"+id+"/dataset", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, h, http.MethodPut, "/api/sessions/"+id+"/dataset?name=jan.csv", usageCSV)
	require.Equal(t, http.StatusOK, w.Code)

	var resp datasetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "jan.csv", resp.Source)
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, 250.0, resp.TotalKWH)
	require.Len(t, resp.Excluded, 1)
	assert.Equal(t, 4, resp.Excluded[0].Line)
	assert.Equal(t, "invalid timestamp", resp.Excluded[0].Reason)

	w = serve(t, h, http.MethodGet, "/api/sessions/"+id+"/dataset", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got datasetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, resp, got)
}

func TestPutDatasetRejected(t *testing.T) {
	srv := newTestServer()
	h := srv.setupHandler()
	id := createSession(t, h)

	w := serve(t, h, http.MethodPut, "/api/sessions/"+id+"/dataset", usageCSV)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, h, http.MethodPut, "/api/sessions/"+id+"/dataset", "when,energy\n1,2\n")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "missing required column")

	w = serve(t, h, http.MethodPut, "/api/sessions/"+id+"/dataset", "timestamp,kWh\n2024-01-15 20:00,1e308\n2024-01-15 21:00,1e308\n")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "too large")

	srv.maxUploadBytes = 16
	w = serve(t, h, http.MethodPut, "/api/sessions/"+id+"/dataset", usageCSV)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// the first dataset survives every failure
	w = serve(t, h, http.MethodGet, "/api/sessions/"+id+"/dataset", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp datasetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Rows)
}

func TestUsage(t *testing.T) {
	h := newTestServer().setupHandler()
	id := createSession(t, h)

	w := serve(t, h, http.MethodGet, "/api/sessions/"+id+"/usage", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, h, http.MethodPut, "/api/sessions/"+id+"/dataset", usageCSV)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, h, http.MethodGet, "/api/sessions/"+id+"/usage", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"period":"Off-Peak"`))

	var usage []types.PeriodSample
	require.NoError(t, json.NewDecoder(w.Body).Decode(&usage))
	require.Len(t, usage, 3)
	assert.Equal(t, 3, usage[0].Timestamp.Hour())
	assert.Equal(t, types.PeriodOffPeak, usage[0].Period)
	assert.Equal(t, 12, usage[1].Timestamp.Hour())
	assert.Equal(t, types.PeriodShoulder, usage[1].Period)
	assert.Equal(t, 20, usage[2].Timestamp.Hour())
	assert.Equal(t, types.PeriodPeak, usage[2].Period)
	assert.Equal(t, 50.0, usage[2].KWH)
}
