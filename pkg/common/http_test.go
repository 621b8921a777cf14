package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version())
	assert.NotContains(t, Version(), "\n")
	assert.Equal(t, "BillCompare/"+Version(), UserAgent())
}

func TestHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent(), r.Header.Get("User-Agent"), "User-Agent should match expected format")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	timeout := 5 * time.Second
	client := HTTPClient(timeout)
	assert.Equal(t, timeout, client.Timeout, "Timeout should be set correctly")
	assert.NotNil(t, client.Transport, "Transport should not be nil")

	req, err := http.NewRequest("GET", server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "something-else")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "something-else", req.Header.Get("User-Agent"), "original request must not be modified")
}
