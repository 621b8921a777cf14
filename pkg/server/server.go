package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raterudder/billcompare/pkg/common"
	"github.com/raterudder/billcompare/pkg/consumption"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/session"
	"github.com/raterudder/billcompare/pkg/tariff"
)

// Server exposes tariff comparisons over HTTP. Each client works in its own
// session which holds the dataset it uploaded.
type Server struct {
	loader   *consumption.Loader
	schedule *tariff.Schedule

	listenAddr      string
	httpServer      *http.Server
	maxUploadBytes  int64
	defaultFlatRate string
	defaultFixedFee string
	serverName      string
	sessionTTL      time.Duration
	maxSessions     int
	now             func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// maxCompareBodyBytes bounds the JSON body of a comparison request.
const maxCompareBodyBytes = 64 << 10

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(loader *consumption.Loader, schedule *tariff.Schedule) *Server {
	srv := &Server{
		loader:     loader,
		schedule:   schedule,
		serverName: "billcompare/" + common.Version(),
		now:        time.Now,
		sessions:   map[string]*sessionEntry{},
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	var maxUploadBytes int64 = 32 << 20
	lflag.JSON(&maxUploadBytes, "max-upload-bytes", maxUploadBytes, "Maximum size in bytes of an uploaded consumption CSV")
	defaultFlatRate := lflag.String("default-flat-rate", "0.25", "Flat rate ($/kWh) used when a comparison request omits one")
	defaultFixedFee := lflag.String("default-fixed-fee", "10", "Fixed fee ($) used when a comparison request omits one")
	sessionTTL := lflag.Duration("session-ttl", time.Hour, "Idle time after which a session and its dataset are dropped. 0 keeps sessions until deleted.")
	maxSessions := 1000
	lflag.JSON(&maxSessions, "max-sessions", maxSessions, "Maximum number of live sessions. 0 means no limit.")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.maxUploadBytes = maxUploadBytes
		srv.defaultFlatRate = *defaultFlatRate
		srv.defaultFixedFee = *defaultFixedFee
		srv.sessionTTL = *sessionTTL
		srv.maxSessions = maxSessions

		if _, _, err := session.ParseRequest(session.Request{
			FlatRate: srv.defaultFlatRate,
			FixedFee: srv.defaultFixedFee,
		}); err != nil {
			log.Ctx(context.Background()).Error("invalid default comparison parameters", slog.Any("error", err))
			os.Exit(1)
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	apiMux.HandleFunc("DELETE /api/sessions/{id}", s.withSession(s.handleDeleteSession))
	apiMux.HandleFunc("GET /api/sessions/{id}/dataset", s.withSession(s.handleGetDataset))
	apiMux.HandleFunc("PUT /api/sessions/{id}/dataset", s.withSession(s.handlePutDataset))
	apiMux.HandleFunc("GET /api/sessions/{id}/usage", s.withSession(s.handleUsage))
	apiMux.HandleFunc("POST /api/sessions/{id}/compare", s.withSession(s.handleCompare))
	apiMux.HandleFunc("GET /api/schedule", s.handleGetSchedule)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.securityHeadersMiddleware(apiMux))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(mux))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if s.sessionTTL > 0 {
		evictCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.evictLoop(evictCtx, min(s.sessionTTL, time.Minute))
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// writeJSON encodes v before the status is written.
func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
		writeJSONError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(b, '\n')); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
