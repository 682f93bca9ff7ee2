package session

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// Navigation origins reported to metrics
const (
	OriginAPI     = "api"
	OriginChat    = "chat"
	OriginMCP     = "mcp"
	OriginGraphQL = "graphql"
	OriginTUI     = "tui"
)

// dispatch commits an interaction effect. It must be called with mu held.
func (s *Session) dispatch(kind string, effect interaction.Effect) interaction.Effect {
	s.touch()
	if s.metrics != nil && kind != "" {
		s.metrics.RecordInteraction(kind)
	}
	if effect.Changed {
		s.render()
	}
	if effect.Viewport != nil {
		s.renderer.Viewport(*effect.Viewport)
	}
	if effect.SelectionChanged {
		s.notifySelect(effect.Selection)
	}
	return effect
}

func (s *Session) notifySelect(sel interaction.Selection) {
	s.logger.Debug("selection changed", logging.String("kind", string(sel.Kind)), logging.String("id", sel.ID))
	if s.onSelect != nil {
		s.onSelect(sel)
	}
}

// TapNode handles a tap on a node
func (s *Session) TapNode(id string) interaction.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch("tap_node", s.machine.SelectNode(id))
}

// TapEdge handles a tap on an edge
func (s *Session) TapEdge(id string) interaction.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch("tap_edge", s.machine.SelectEdge(id))
}

// TapBackground handles a tap on empty canvas
func (s *Session) TapBackground() interaction.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch("tap_background", s.machine.ClearSelection())
}

// Cancel handles the escape key and the explicit clear button
func (s *Session) Cancel() interaction.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch("cancel", s.machine.ClearSelection())
}

// Search runs a substring search over node ids and labels
func (s *Session) Search(query string) interaction.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	effect := s.machine.Search(query)
	if s.machine.Searching() {
		if s.metrics != nil {
			s.metrics.RecordSearch(len(s.machine.Matches()))
		}
		s.logger.Debug("search", logging.Query(s.machine.Query()), logging.Count(len(s.machine.Matches())))
	}
	return s.dispatch("", effect)
}

// NavigateToNode selects id and centers the viewport on it. It reports false
// and does nothing when the graph has no such node.
func (s *Session) NavigateToNode(id string) bool {
	return s.NavigateFrom(OriginAPI, id)
}

// NavigateFrom is NavigateToNode with the requesting collaborator named for
// metrics
func (s *Session) NavigateFrom(origin, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.g.HasNode(id)
	if s.metrics != nil {
		s.metrics.RecordNavigation(origin, ok)
	}
	if !ok {
		s.logger.Debug("navigation to unknown node ignored", logging.NodeID(id), logging.String("origin", origin))
		return false
	}
	effect := s.machine.SelectNode(id)
	effect.Viewport = interaction.CenterOn(id)
	s.dispatch("navigate", effect)
	return true
}
