package api

import (
	"fmt"
	"net/http"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// session looks up the {id} path value, writing the error response when the
// session does not exist
func (s *Server) session(w http.ResponseWriter, r *http.Request, operation string) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.respondErr(w, r, err, operation)
		return nil, false
	}
	return sess, true
}

// NewSession creates a session whose render directives and selection
// changes are published on the bus
func (s *Server) NewSession() (*session.Session, error) {
	var renderer *BusRenderer
	newRenderer := func(id string) render.Renderer {
		renderer = NewBusRenderer(s.bus, id, s.metrics)
		return renderer
	}
	onSelect := func(_ string, sel interaction.Selection) { renderer.Selected(sel) }
	return s.sessions.Create(newRenderer, onSelect)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.NewSession()
	if err != nil {
		s.respondErr(w, r, err, "create session")
		return
	}
	s.respondJSON(w, http.StatusCreated, SessionResponse{
		ID:      sess.ID(),
		Frame:   sess.Frame(),
		Sidebar: sess.Sidebar(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.respondErr(w, r, err, "delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "view")
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Frame())
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "sidebar")
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Sidebar())
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "filters")
	if !ok {
		return
	}
	nodes, edges := sess.Counts()
	s.respondJSON(w, http.StatusOK, FilterResponse{
		State:        filterStateOf(sess.Filters()),
		VisibleNodes: nodes,
		VisibleEdges: edges,
	})
}

// handleSetFilters applies a FilterRequest in a fixed order: reset, bulk
// toggles, individual predicates and kinds, toggles, then focus, orphans,
// labels and layout.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "filters")
	if !ok {
		return
	}
	var req FilterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err, "filters")
		return
	}
	if err := checkFilterRequest(sess.Graph(), &req); err != nil {
		s.respondErr(w, r, err, "filters")
		return
	}
	if req.Focus != nil && *req.Focus != "" {
		if n, found := sess.Graph().Node(*req.Focus); !found || n.Kind != graph.KindFramework {
			s.respondErr(w, r, fmt.Errorf("focus %q is not a framework: %w", *req.Focus, graph.ErrNodeNotFound), "filters")
			return
		}
	}

	var changed filter.Change
	merge := func(c filter.Change) {
		changed.Predicates = changed.Predicates || c.Predicates
		changed.Kinds = changed.Kinds || c.Kinds
		changed.Focus = changed.Focus || c.Focus
		changed.Orphans = changed.Orphans || c.Orphans
		changed.Labels = changed.Labels || c.Labels
		changed.Layout = changed.Layout || c.Layout
	}

	if req.Reset {
		merge(sess.ResetFilters())
	}
	if req.AllPredicates != nil {
		merge(sess.SetAllPredicates(*req.AllPredicates))
	}
	if req.AllKinds != nil {
		merge(sess.SetAllKinds(*req.AllKinds))
	}
	for p, on := range req.Predicates {
		merge(sess.SetPredicate(graph.Predicate(p), on))
	}
	for k, on := range req.Kinds {
		merge(sess.SetKind(graph.NodeKind(k), on))
	}
	for _, name := range req.Toggle {
		if k := graph.NodeKind(name); k.Valid() {
			merge(sess.ToggleKind(k))
		} else {
			merge(sess.TogglePredicate(graph.Predicate(name)))
		}
	}
	if req.Focus != nil {
		merge(sess.SetFocusedFramework(*req.Focus))
	}
	if req.ShowOrphans != nil {
		merge(sess.SetShowOrphans(*req.ShowOrphans))
	}
	if req.ShowLabels != nil {
		merge(sess.SetShowLabels(*req.ShowLabels))
	}
	if req.Layout != nil {
		c, err := sess.SetLayout(*req.Layout)
		if err != nil {
			s.respondErr(w, r, err, "filters")
			return
		}
		merge(c)
	}

	nodes, edges := sess.Counts()
	s.respondJSON(w, http.StatusOK, FilterResponse{
		State:        filterStateOf(sess.Filters()),
		Resolved:     changed.NeedsResolve(),
		VisibleNodes: nodes,
		VisibleEdges: edges,
	})
}

// checkFilterRequest rejects predicate names that are neither known nor
// used by the graph
func checkFilterRequest(g *graph.Graph, req *FilterRequest) error {
	for p := range req.Predicates {
		if !knownPredicate(g, p) {
			return fmt.Errorf("%w: unknown predicate %q", errBadRequest, p)
		}
	}
	for _, name := range req.Toggle {
		if !graph.NodeKind(name).Valid() && !knownPredicate(g, name) {
			return fmt.Errorf("%w: unknown predicate or node kind %q", errBadRequest, name)
		}
	}
	return nil
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "tap")
	if !ok {
		return
	}
	var req TapRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err, "tap")
		return
	}

	var effect interaction.Effect
	switch {
	case req.Node != "":
		effect = sess.TapNode(req.Node)
	case req.Edge != "":
		effect = sess.TapEdge(req.Edge)
	default:
		effect = sess.TapBackground()
	}
	s.respondJSON(w, http.StatusOK, effectOf(effect, sess.Selection()))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "search")
	if !ok {
		return
	}
	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err, "search")
		return
	}

	resp := effectOf(sess.Search(req.Query), sess.Selection())
	resp.Query, resp.Matches = sess.Query()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "navigate")
	if !ok {
		return
	}
	var req NavigateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, r, err, "navigate")
		return
	}
	origin := req.Origin
	if origin == "" {
		origin = session.OriginAPI
	}

	navigated := sess.NavigateFrom(origin, req.ID)
	if !navigated {
		s.logger.Debug("navigate ignored", logging.SessionID(sess.ID()), logging.NodeID(req.ID))
	}
	s.respondJSON(w, http.StatusOK, NavigateResponse{Navigated: navigated, Selection: sess.Selection()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "clear")
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, effectOf(sess.Cancel(), sess.Selection()))
}

// handleSelection returns the detail panel. With nothing selected the
// response carries an empty selection.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "selection")
	if !ok {
		return
	}
	if sess.Selection().Empty() {
		s.respondJSON(w, http.StatusOK, session.Detail{})
		return
	}
	d, err := sess.Detail()
	if err != nil {
		s.respondErr(w, r, err, "selection")
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleNodeDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, "node detail")
	if !ok {
		return
	}
	d, err := sess.NodeDetail(r.PathValue("node"))
	if err != nil {
		s.respondErr(w, r, err, "node detail")
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}
