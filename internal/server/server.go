package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Runner triggers one digest run
type Runner interface {
	Trigger(ctx context.Context) (models.RunStats, error)
}

// Checker reports the health of one dependency
type Checker interface {
	Health(ctx context.Context) error
}

// Server exposes probes and the cron trigger
type Server struct {
	server    *http.Server
	runner    Runner
	secret    string
	checks    map[string]Checker
	ready     bool
	readyMu   sync.RWMutex
	startTime time.Time
}

// HealthStatus represents process health
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessStatus represents dependency readiness
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

type cronResponse struct {
	Success bool             `json:"success"`
	Stats   *models.RunStats `json:"stats,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// NewServer creates the HTTP server. An empty secret leaves /api/cron open.
func NewServer(port int, runner Runner, secret string, checks map[string]Checker) *Server {
	mux := http.NewServeMux()

	if checks == nil {
		checks = map[string]Checker{}
	}

	s := &Server{
		server: &http.Server{
			Addr:        ":" + strconv.Itoa(port),
			Handler:     mux,
			ReadTimeout: 5 * time.Second,
			// A triggered run sends every digest before answering
			WriteTimeout: 35 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		runner:    runner,
		secret:    secret,
		checks:    checks,
		startTime: time.Now(),
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReadiness)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReadiness)
	mux.HandleFunc("/api/cron", s.handleCron)

	return s
}

// Handler returns the routing handler (tests)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Stop is called
func (s *Server) Start() error {
	logger.Info("http server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping http server...")
	return s.server.Shutdown(ctx)
}

// SetReady marks the service as ready
func (s *Server) SetReady(ready bool) {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	s.ready = ready

	if ready {
		logger.Info("✅ service marked as READY")
	} else {
		logger.Warn("⚠️ service marked as NOT READY")
	}
}

// handleHealth is the liveness probe; dependencies are only listed with ?verbose=true
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.Checks, _ = s.runChecks(r.Context())
	}

	writeJSON(w, http.StatusOK, status)
}

// handleReadiness returns 200 only after startup and with healthy dependencies
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.readyMu.RLock()
	ready := s.ready
	s.readyMu.RUnlock()

	checks, allHealthy := s.runChecks(r.Context())
	isReady := ready && allHealthy

	status := ReadinessStatus{
		Ready:     isReady,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	code := http.StatusOK
	if !isReady {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	if !s.authorized(r) {
		logger.Warn("unauthorized cron trigger", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	stats, err := s.runner.Trigger(r.Context())
	if err != nil {
		logger.Error("cron trigger failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  "Internal error",
			Detail: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, cronResponse{Success: true, Stats: &stats})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.secret == "" {
		return true
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) == 1
}

func (s *Server) runChecks(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(s.checks))
	allHealthy := true

	for name, checker := range s.checks {
		if err := checker.Health(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
			continue
		}
		checks[name] = "healthy"
	}

	return checks, allHealthy
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("failed to encode response", zap.Error(err))
	}
}
