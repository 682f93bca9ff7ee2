package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	resp := InfoResponse{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Version:      Version,
		Uptime:       time.Since(s.startTime).Round(time.Second).String(),
		Sessions:     s.sessions.Len(),
		ChatProvider: "none",
		AuthRequired: s.jwt != nil,
	}
	if snap := s.cache.Current(); snap != nil {
		resp.GraphVersion = snap.Version
	} else {
		resp.Status = "loading"
	}
	if s.chat != nil {
		resp.ChatProvider = s.chat.ProviderName()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleGraph serves the cached payload bytes. The snapshot version is the
// ETag.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Current()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "graph not loaded")
		return
	}

	etag := `"` + strconv.FormatUint(snap.Version, 10) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.Bytes)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(snap.Bytes); err != nil {
		s.logger.Debug("graph write aborted", logging.Error(err))
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cache.Reload(r.Context())
	if err != nil {
		s.logger.Warn("reload failed", logging.Error(err))
		s.respondError(w, http.StatusBadGateway, fmt.Sprintf("reload from %s failed", s.cache.Source()))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"version": snap.Version,
		"nodes":   snap.Graph.NodeCount(),
		"edges":   snap.Graph.EdgeCount(),
	})
}
