package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status    string    `json:"status"`
	LastRun   string    `json:"last_run,omitempty"`
	Findings  int       `json:"findings"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthFunc reports the current health of the analyzer.
type HealthFunc func(ctx context.Context) HealthStatus

type Server struct {
	addr   string
	health HealthFunc
	server *http.Server
}

func NewServer(addr string, health HealthFunc) *Server {
	return &Server{addr: addr, health: health}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{Status: "up", CheckedAt: time.Now().UTC()}
		if s.health != nil {
			status = s.health(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	return mux
}

// Start listens in the background. It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
