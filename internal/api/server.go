// Package api provides the HTTP API for computing and storing chart wheels.
// Compute endpoints are public and rate limited per client IP.
// Endpoints that modify or remove stored charts require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/talgya/astrowheel/internal/aspects"
	"github.com/talgya/astrowheel/internal/chart"
	"github.com/talgya/astrowheel/internal/houses"
	"github.com/talgya/astrowheel/internal/persistence"
	"github.com/talgya/astrowheel/internal/placement"
)

const maxBodyBytes = 1 << 20

// Server serves chart computations over HTTP.
type Server struct {
	DB        *persistence.DB // Nil disables the /charts endpoints.
	Port      int
	AdminKey  string // Bearer token for PUT/DELETE on stored charts. Empty = disabled.
	RateLimit int    // Compute requests per IP per hour. Zero or less = unlimited.

	once     sync.Once
	started  time.Time
	builder  *chart.Builder
	detector *aspects.Detector
	cross    *aspects.Detector
	cache    *aspects.Cache
	limiter  *RateLimiter
	handler  http.Handler
	methods  []string
}

func (s *Server) init() {
	s.once.Do(func() {
		s.started = time.Now()
		s.builder = chart.NewBuilder()
		s.cache = aspects.NewCache()
		s.detector = aspects.NewDetector(s.cache)
		s.cross = aspects.NewDetector(nil)
		s.limiter = NewRateLimiter(s.RateLimit, time.Hour)
		mux := s.routes()
		s.handler = corsMiddleware(s.methods, mux)
	})
}

// Handler returns the API with its middleware applied.
func (s *Server) Handler() http.Handler {
	s.init()
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	limit := func(h http.HandlerFunc) http.HandlerFunc { return RateLimitMiddleware(s.limiter, h) }

	mux := http.NewServeMux()
	seen := map[string]bool{http.MethodOptions: true}
	handle := func(pattern string, h http.HandlerFunc) {
		if method, _, ok := strings.Cut(pattern, " "); ok && !seen[method] {
			seen[method] = true
			s.methods = append(s.methods, method)
		}
		mux.HandleFunc(pattern, h)
	}

	handle("GET /api/v1/status", s.handleStatus)
	handle("GET /api/v1/systems", s.handleSystems)

	// Stateless computations.
	handle("POST /api/v1/houses", limit(s.handleHouses))
	handle("POST /api/v1/aspects", limit(s.handleAspects))
	handle("POST /api/v1/synastry", limit(s.handleSynastry))
	handle("POST /api/v1/resolve", limit(s.handleResolve))
	handle("POST /api/v1/wheel", limit(s.handleWheel))

	// Stored charts.
	handle("GET /api/v1/charts", s.withDB(s.handleListCharts))
	handle("POST /api/v1/charts", limit(s.withDB(s.handleCreateChart)))
	handle("GET /api/v1/charts/{id}", s.withDB(s.handleGetChart))
	handle("GET /api/v1/charts/{id}/wheel", limit(s.withDB(s.handleChartWheel)))
	handle("PUT /api/v1/charts/{id}", s.adminOnly(s.withDB(s.handleUpdateChart)))
	handle("DELETE /api/v1/charts/{id}", s.adminOnly(s.withDB(s.handleDeleteChart)))

	s.methods = append(s.methods, http.MethodOptions)
	return mux
}

// ListenAndServe serves on Port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	handler := s.Handler()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.limiter.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "store", s.DB != nil)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("HTTP API shutting down")
	return srv.Shutdown(shutdownCtx)
}

// corsMiddleware adds CORS headers for allowed frontend origins, advertising the
// given methods. Set CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(methods []string, next http.Handler) http.Handler {
	allowMethods := strings.Join(methods, ", ")
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no WHEELCHART_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) withDB(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

// decodeJSON reads a JSON request body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, houses.ErrInvalidInput),
		errors.Is(err, houses.ErrMissingParameter),
		errors.Is(err, houses.ErrUnsupportedSystem),
		errors.Is(err, aspects.ErrInvalidArgument),
		errors.Is(err, placement.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, persistence.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
