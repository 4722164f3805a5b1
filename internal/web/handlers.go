package web

import (
	"encoding/json"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/sleep"
	"github.com/sweeney/breath-sensor/internal/store"
)

// statusResponse is the small acknowledgment body the control and upload
// endpoints return. The dashboard relies on always receiving one. SessionID
// is set on the start ack, where a fresh ID is minted.
type statusResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	File      string `json:"file,omitempty"`
}

// endResponse acknowledges end_sleep with the finalized totals.
type endResponse struct {
	Status            string  `json:"status"`
	TotalSleepSeconds float64 `json:"total_sleep_seconds"`
	TotalSleepHours   float64 `json:"total_sleep_hours"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderDashboard(w, s.deps.Tracker.Snapshot())
}

// handleLive upgrades the connection and subscribes it to the broadcast hub.
// The handler then just consumes (and discards) client frames until the viewer
// goes away; all sample writes come from the run loop via the hub.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.deps.Hub.Subscribe(conn)
	s.deps.Metrics.IncLiveViewers()
	s.deps.Logger.Info("viewer connected", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.deps.Hub.Unsubscribe(conn)
		s.deps.Metrics.DecLiveViewers()
		conn.Close()
		s.deps.Logger.Info("viewer disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	tr := s.deps.Tracker.Start()
	s.deps.Logger.Info("sleep started", zap.String("session_id", tr.SessionID))
	writeJSON(w, http.StatusOK, statusResponse{Status: "sleep started", SessionID: tr.SessionID})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if _, changed := s.deps.Tracker.Pause(); changed {
		s.deps.Logger.Info("sleep paused")
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "sleep paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if _, changed := s.deps.Tracker.Resume(); changed {
		s.deps.Logger.Info("sleep resumed")
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "sleep resumed"})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	tr, changed := s.deps.Tracker.End()
	secs := tr.Total.Seconds()
	if changed {
		s.deps.Logger.Info("sleep ended",
			zap.String("session_id", tr.SessionID),
			zap.Float64("total_sleep_secs", secs),
		)
	}
	writeJSON(w, http.StatusOK, endResponse{
		Status:            "sleep ended",
		TotalSleepSeconds: secs,
		TotalSleepHours:   math.Round(secs/3600*100) / 100,
	})
}

func (s *Server) handleMetricsPage(w http.ResponseWriter, r *http.Request) {
	summaries := s.loadSummariesNewestFirst()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderMetrics(w, summaries)
}

func (s *Server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	summaries := s.loadSummariesNewestFirst()
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleMetricsExport(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Store.List()
	if err != nil {
		s.deps.Logger.Error("summary listing failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="sleep-summaries.xlsx"`)
	if err := store.WriteXLSX(w, summaries); err != nil {
		// Headers are gone; all we can do is log.
		s.deps.Logger.Error("xlsx export failed", zap.Error(err))
	}
}

// uploadRequest carries the canvas capture from the dashboard.
type uploadRequest struct {
	Image string `json:"image"`
}

func (s *Server) handleUploadSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "no image"})
		return
	}

	name, err := s.deps.Snapshots.Save(req.Image, s.deps.Now())
	if err != nil {
		s.deps.Logger.Error("snapshot save failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{
			Status: "error",
			Detail: err.Error(),
		})
		return
	}

	s.deps.Logger.Info("snapshot saved", zap.String("file", name))
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", File: "screens/" + name})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.Snapshots.List()
	if err != nil {
		s.deps.Logger.Error("snapshot listing failed", zap.Error(err))
		files = nil
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderAlerts(w, files)
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderLearn(w)
}

func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.formatStatusJSON())
}

// loadSummariesNewestFirst returns the summary history most recent first,
// which is the order the dashboard pages display.
func (s *Server) loadSummariesNewestFirst() []sleep.Summary {
	summaries, err := s.deps.Store.List()
	if err != nil {
		s.deps.Logger.Error("summary listing failed", zap.Error(err))
		return nil
	}
	for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
		summaries[i], summaries[j] = summaries[j], summaries[i]
	}
	return summaries
}
