package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// handleChat streams an assistant reply as server-sent events. With
// ?session=<id> the node selected in that session is added to the prompt
// unless the request names one itself.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.respondErr(w, r, chat.ErrNoProvider, "chat")
		return
	}
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err, "chat")
		return
	}
	if id := r.URL.Query().Get("session"); id != "" && req.SelectedNode == "" {
		sess, err := s.sessions.Get(id)
		if err != nil {
			s.respondErr(w, r, err, "chat")
			return
		}
		if node, ok := sess.SelectedNodeID(); ok {
			req.SelectedNode = node
		}
	}
	if err := s.chat.Check(req); err != nil {
		s.respondErr(w, r, err, "chat")
		return
	}

	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := s.chat.Stream(r.Context(), req, chat.NewEventWriter(w)); err != nil {
		s.logger.Debug("chat ended with error", logging.Error(err))
	}
}

// RefsRequest carries assistant text to scan for node ids
type RefsRequest struct {
	Text string `json:"text" validate:"max=1048576"`
}

// handleRefs lists the graph node ids mentioned in a text so the viewer can
// make them clickable
func (s *Server) handleRefs(w http.ResponseWriter, r *http.Request) {
	var req RefsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err, "refs")
		return
	}
	g := s.sessions.Graph()
	if g == nil {
		s.respondError(w, http.StatusServiceUnavailable, "graph not loaded")
		return
	}
	refs := chat.NodeRefs(req.Text, g)
	if refs == nil {
		refs = []string{}
	}
	s.respondJSON(w, http.StatusOK, NodeRefsResponse{Refs: refs})
}
