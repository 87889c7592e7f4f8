// Package health exposes loop liveness over HTTP and to systemd.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/xxSohoxx/scheduler-bot/internal/app"
)

// Monitor is the view of app.HealthMonitor the reporters need.
type Monitor interface {
	Snapshot() []app.LoopHealth
	Healthy() bool
	Live() bool
}

// Server serves GET /health and GET /health/{loop}.
type Server struct {
	monitor Monitor
	logger  *logrus.Entry
	srv     *http.Server
}

func NewServer(addr string, monitor Monitor, logger *logrus.Entry) *Server {
	s := &Server{monitor: monitor, logger: logger}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.overall).Methods(http.MethodGet)
	router.HandleFunc("/health/{loop}", s.loop).Methods(http.MethodGet)
	return router
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.srv.Addr).Info("Health server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Health server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type overallResponse struct {
	Status string           `json:"status"`
	Time   string           `json:"time"`
	Loops  []app.LoopHealth `json:"loops"`
}

func (s *Server) overall(w http.ResponseWriter, _ *http.Request) {
	status, code := "healthy", http.StatusOK
	if !s.monitor.Healthy() {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, overallResponse{
		Status: status,
		Time:   time.Now().Format(time.RFC3339),
		Loops:  s.monitor.Snapshot(),
	})
}

func (s *Server) loop(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["loop"]
	for _, l := range s.monitor.Snapshot() {
		if l.Name != name {
			continue
		}
		code := http.StatusOK
		if l.Status == app.LoopHalted || l.Status == app.LoopStale {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, l)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown loop " + name})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
