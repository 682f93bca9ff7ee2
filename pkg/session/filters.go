package session

import (
	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
)

// apply commits a filter change: visibility changes re-resolve, any change
// re-renders and layout changes rerun the layout. It must be called with mu
// held.
func (s *Session) apply(change filter.Change) filter.Change {
	s.touch()
	if !change.Any() {
		return change
	}
	if change.NeedsResolve() {
		s.recompute()
	}
	s.render()
	if change.Layout {
		s.renderer.RunLayout(render.LayoutFor(s.filters.State().Layout))
	}
	return change
}

// TogglePredicate flips the visibility of one relationship kind
func (s *Session) TogglePredicate(p graph.Predicate) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.TogglePredicate(p))
}

// SetPredicate turns one relationship kind on or off
func (s *Session) SetPredicate(p graph.Predicate, on bool) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.SetPredicate(p, on))
}

// ToggleKind flips the visibility of one node kind
func (s *Session) ToggleKind(k graph.NodeKind) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.ToggleKind(k))
}

// SetKind turns one node kind on or off
func (s *Session) SetKind(k graph.NodeKind, on bool) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.SetKind(k, on))
}

// SetAllPredicates shows every predicate present in the graph, or none
func (s *Session) SetAllPredicates(on bool) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.SetAllPredicates(on))
}

// SetAllKinds shows every node kind, or none
func (s *Session) SetAllKinds(on bool) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.SetAllKinds(on))
}

// SetFocusedFramework focuses a framework; the empty string clears focus
func (s *Session) SetFocusedFramework(id string) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	change := s.apply(s.filters.SetFocusedFramework(id))
	if change.Focus {
		s.logger.Info("framework focus changed", logging.Framework(id), logging.String("resolved", s.vis.Focus))
	}
	return change
}

// SetShowOrphans toggles display of nodes without visible edges
func (s *Session) SetShowOrphans(on bool) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.SetShowOrphans(on))
}

// SetShowLabels toggles node labels
func (s *Session) SetShowLabels(on bool) filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.filters.SetShowLabels(on))
}

// SetLayout selects a layout by name and reruns it
func (s *Session) SetLayout(name string) (filter.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	change, err := s.filters.SetLayout(name)
	if err != nil {
		return change, err
	}
	return s.apply(change), nil
}

// ResetFilters restores the default filters, drops every interaction overlay
// and fits the whole graph into the viewport
func (s *Session) ResetFilters() filter.Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := s.filters.Reset()
	effect := s.machine.Reset()
	if change.NeedsResolve() {
		s.recompute()
	}
	s.touch()
	s.render()
	if change.Layout {
		s.renderer.RunLayout(render.LayoutFor(s.filters.State().Layout))
	}
	s.renderer.Viewport(*interaction.FitAll())
	if effect.SelectionChanged {
		s.notifySelect(effect.Selection)
	}
	return change
}
