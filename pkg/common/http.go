package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

// Version returns the release version embedded at build time.
func Version() string {
	return strings.TrimSpace(version)
}

// UserAgent is sent on every request made through HTTPClient.
func UserAgent() string {
	return "BillCompare/" + Version()
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// the caller's request may be reused so don't modify its headers
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client that identifies itself with UserAgent.
func HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			transport: http.DefaultTransport,
			userAgent: UserAgent(),
		},
		Timeout: timeout,
	}
}
