// Package web provides the HTTP surface of the breath-sensor daemon: the live
// dashboard, the session control endpoints, the summary history pages and the
// daemon status endpoints.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/broadcast"
	"github.com/sweeney/breath-sensor/internal/metrics"
	"github.com/sweeney/breath-sensor/internal/mqtt"
	"github.com/sweeney/breath-sensor/internal/snapshot"
	"github.com/sweeney/breath-sensor/internal/store"
	"github.com/sweeney/breath-sensor/internal/tracker"
)

// Config echoes daemon configuration for the status page.
type Config struct {
	Source             string
	Broker             string
	HTTPAddr           string
	WSBroker           string // websocket broker URL for browser MQTT (empty = disabled)
	DataDir            string
	ScreensDir         string
	CheckpointInterval time.Duration
}

// Deps collects the server's collaborators. Tracker, Hub, Store, Snapshots,
// Metrics and Logger are required; MQTT and Registry may be nil when those
// subsystems are disabled.
type Deps struct {
	Tracker   *tracker.Tracker
	Hub       *broadcast.Hub
	Store     *store.Store
	Snapshots *snapshot.Saver
	Metrics   *metrics.Metrics
	MQTT      mqtt.ConnectionStatus
	Registry  *prometheus.Registry
	Config    Config
	StartTime time.Time
	Logger    *zap.Logger

	// Now is the clock for snapshot filenames; defaults to time.Now.
	Now func() time.Time
}

// Server serves the dashboard and control endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	deps       Deps
	upgrader   websocket.Upgrader
}

// New creates a Server wired to the given collaborators.
func New(addr string, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/start_sleep", s.handleStart)
	mux.HandleFunc("/pause_sleep", s.handlePause)
	mux.HandleFunc("/resume_sleep", s.handleResume)
	mux.HandleFunc("/end_sleep", s.handleEnd)
	mux.HandleFunc("/metrics", s.handleMetricsPage)
	mux.HandleFunc("/metrics.json", s.handleMetricsJSON)
	mux.HandleFunc("/metrics/export.xlsx", s.handleMetricsExport)
	mux.HandleFunc("/upload_snapshot", s.handleUploadSnapshot)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.Handle("/screens/", http.StripPrefix("/screens/",
		http.FileServer(http.Dir(deps.Snapshots.Dir()))))
	mux.HandleFunc("/learn", s.handleLearn)
	mux.HandleFunc("/index.json", s.handleStatusJSON)
	if deps.Registry != nil {
		mux.Handle("/prometheus", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
