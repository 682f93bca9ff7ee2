package api

import (
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/render"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// InfoResponse is the /api/info payload
type InfoResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	GraphVersion uint64    `json:"graph_version"`
	Sessions     int       `json:"sessions"`
	ChatProvider string    `json:"chat_provider"`
	AuthRequired bool      `json:"auth_required"`
}

// FilterState is the wire form of filter.State
type FilterState struct {
	Predicates  []string `json:"predicates"`
	Kinds       []string `json:"kinds"`
	Focus       string   `json:"focus,omitempty"`
	ShowOrphans bool     `json:"show_orphans"`
	ShowLabels  bool     `json:"show_labels"`
	Layout      string   `json:"layout"`
}

func filterStateOf(st filter.State) FilterState {
	out := FilterState{
		Predicates:  make([]string, 0, len(st.Predicates)),
		Kinds:       make([]string, 0, len(st.Kinds)),
		Focus:       st.FocusedFramework,
		ShowOrphans: st.ShowOrphans,
		ShowLabels:  st.ShowLabels,
		Layout:      string(st.Layout),
	}
	for _, p := range st.ActivePredicates() {
		out.Predicates = append(out.Predicates, string(p))
	}
	for _, k := range st.ActiveKinds() {
		out.Kinds = append(out.Kinds, string(k))
	}
	return out
}

// FilterRequest changes filter inputs. Unset fields are left alone; Reset is
// applied before everything else.
type FilterRequest struct {
	Reset         bool            `json:"reset,omitempty"`
	AllPredicates *bool           `json:"all_predicates,omitempty"`
	AllKinds      *bool           `json:"all_kinds,omitempty"`
	Predicates    map[string]bool `json:"predicates,omitempty" validate:"omitempty,max=64"`
	Kinds         map[string]bool `json:"kinds,omitempty" validate:"omitempty,dive,keys,nodekind,endkeys"`
	Toggle        []string        `json:"toggle,omitempty" validate:"omitempty,max=64"`
	Focus         *string         `json:"focus,omitempty" validate:"omitempty,max=256"`
	ShowOrphans   *bool           `json:"show_orphans,omitempty"`
	ShowLabels    *bool           `json:"show_labels,omitempty"`
	Layout        *string         `json:"layout,omitempty" validate:"omitempty,layout"`
}

// FilterResponse reports the new state after a filter request
type FilterResponse struct {
	State        FilterState `json:"state"`
	Resolved     bool        `json:"resolved"`
	VisibleNodes int         `json:"visible_nodes"`
	VisibleEdges int         `json:"visible_edges"`
}

// TapRequest reports a tap from the rendering engine. With neither field set
// it is a background tap.
type TapRequest struct {
	Node string `json:"node,omitempty" validate:"omitempty,max=256"`
	Edge string `json:"edge,omitempty" validate:"omitempty,max=512"`
}

// SearchRequest runs a search
type SearchRequest struct {
	Query string `json:"query" validate:"max=256"`
}

// NavigateRequest asks to select a node and center on it
type NavigateRequest struct {
	ID     string `json:"id" validate:"required,max=256"`
	Origin string `json:"origin,omitempty" validate:"omitempty,oneof=api chat mcp graphql tui"`
}

// EffectResponse reports the outcome of an interaction event
type EffectResponse struct {
	Changed   bool                         `json:"changed"`
	Selection interaction.Selection        `json:"selection"`
	Viewport  *interaction.ViewportRequest `json:"viewport,omitempty"`
	Query     string                       `json:"query,omitempty"`
	Matches   []string                     `json:"matches,omitempty"`
}

func effectOf(e interaction.Effect, sel interaction.Selection) EffectResponse {
	return EffectResponse{Changed: e.Changed, Selection: sel, Viewport: e.Viewport}
}

// NavigateResponse reports whether navigation happened
type NavigateResponse struct {
	Navigated bool                  `json:"navigated"`
	Selection interaction.Selection `json:"selection"`
}

// SessionResponse is returned when a session is created
type SessionResponse struct {
	ID      string          `json:"id"`
	Frame   render.Frame    `json:"frame"`
	Sidebar session.Sidebar `json:"sidebar"`
}

// NodeRefsResponse lists graph node ids found in a text
type NodeRefsResponse struct {
	Refs []string `json:"refs"`
}

func knownPredicate(g *graph.Graph, name string) bool {
	p := graph.Predicate(name)
	if p.Valid() {
		return true
	}
	for _, used := range g.UsedPredicates() {
		if used == p {
			return true
		}
	}
	return false
}
