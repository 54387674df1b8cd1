package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// ServerConfig describes the telemetry endpoint.
type ServerConfig struct {
	Listen    string
	Path      string
	StatsPath string
}

// Server serves /metrics and /stats.
type Server struct {
	http     *http.Server
	listener net.Listener
	registry *prometheus.Registry
}

// NewRegistry returns a registry holding the receiver collector plus the Go
// runtime and process collectors.
func NewRegistry(source StatsSource) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		NewCollector(source),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return reg, nil
}

// StatsHandler serves the snapshot of source as JSON.
func StatsHandler(source StatsSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(source.Stats()); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "StatsHandler",
				"error":    err.Error(),
			}).Warn("Failed to write stats")
		}
	})
}

// NewServer binds cfg.Listen and prepares the handlers.
func NewServer(cfg ServerConfig, source StatsSource) (*Server, error) {
	reg, err := NewRegistry(source)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle(cfg.StatsPath, StatsHandler(source))

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}

	return &Server{
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		registry: reg,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	logrus.WithFields(logrus.Fields{
		"function": "Server.Serve",
		"addr":     s.listener.Addr().String(),
	}).Info("Telemetry endpoint listening")

	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
