package graphql

import (
	"encoding/json"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// types holds the object types of one schema. Node and Edge reference each
// other, so their fields are thunks.
type types struct {
	node      *graphql.Object
	edge      *graphql.Object
	selection *graphql.Object
	filters   *graphql.Object
	session   *graphql.Object
	stats     *graphql.Object
}

func newTypes(b *Backend) *types {
	t := &types{}

	t.node = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Node",
		Description: "An entity of the compliance knowledge graph",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: nodeField(func(n *graph.Node) any { return n.ID })},
				"kind":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: nodeField(func(n *graph.Node) any { return string(n.Kind) })},
				"label": &graphql.Field{Type: graphql.String, Resolve: nodeField(func(n *graph.Node) any { return n.Label })},
				"properties": &graphql.Field{
					Type:        graphql.String,
					Description: "Node properties as a JSON object",
					Resolve: nodeField(func(n *graph.Node) any {
						if len(n.Props) == 0 {
							return "{}"
						}
						data, err := json.Marshal(n.Props)
						if err != nil {
							return nil
						}
						return string(data)
					}),
				},
				"degree": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (any, error) {
						n, ok := p.Source.(*graph.Node)
						if !ok {
							return nil, nil
						}
						return len(b.graph().IncidentEdges(n.ID)), nil
					},
				},
				"edges": &graphql.Field{
					Type:        graphql.NewList(t.edge),
					Description: "Incident edges, optionally restricted by direction (in, out) and predicate",
					Args: graphql.FieldConfigArgument{
						"direction": &graphql.ArgumentConfig{Type: graphql.String},
						"predicate": &graphql.ArgumentConfig{Type: graphql.String},
					},
					Resolve: b.resolveNodeEdges,
				},
			}
		}),
	})

	t.edge = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Edge",
		Description: "A typed relationship between two nodes",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: edgeField(func(e *graph.Edge) any { return e.ID })},
				"source":     &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e *graph.Edge) any { return e.Source })},
				"target":     &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e *graph.Edge) any { return e.Target })},
				"predicate":  &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e *graph.Edge) any { return string(e.Predicate) })},
				"plane":      &graphql.Field{Type: graphql.String, Resolve: edgeField(func(e *graph.Edge) any { return string(e.Plane) })},
				"confidence": &graphql.Field{Type: graphql.Float, Resolve: edgeField(func(e *graph.Edge) any { return e.Confidence })},
				"sourceNode": &graphql.Field{Type: t.node, Resolve: b.resolveEndpoint(func(e *graph.Edge) string { return e.Source })},
				"targetNode": &graphql.Field{Type: t.node, Resolve: b.resolveEndpoint(func(e *graph.Edge) string { return e.Target })},
			}
		}),
	})

	t.selection = graphql.NewObject(graphql.ObjectConfig{
		Name: "Selection",
		Fields: graphql.Fields{
			"kind": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (any, error) {
				sel, _ := p.Source.(interaction.Selection)
				return string(sel.Kind), nil
			}},
			"id": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (any, error) {
				sel, _ := p.Source.(interaction.Selection)
				return sel.ID, nil
			}},
		},
	})

	t.filters = graphql.NewObject(graphql.ObjectConfig{
		Name: "Filters",
		Fields: graphql.Fields{
			"predicates":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"kinds":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"focus":       &graphql.Field{Type: graphql.String},
			"showOrphans": &graphql.Field{Type: graphql.Boolean},
			"showLabels":  &graphql.Field{Type: graphql.Boolean},
			"layout":      &graphql.Field{Type: graphql.String},
		},
	})

	t.session = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Session",
		Description: "The explorer state of one analyst",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: sessionField(func(s *session.Session) any { return s.ID() })},
			"visibleNodes": &graphql.Field{Type: graphql.Int, Resolve: sessionField(func(s *session.Session) any {
				n, _ := s.Counts()
				return n
			})},
			"visibleEdges": &graphql.Field{Type: graphql.Int, Resolve: sessionField(func(s *session.Session) any {
				_, e := s.Counts()
				return e
			})},
			"selection": &graphql.Field{Type: t.selection, Resolve: sessionField(func(s *session.Session) any { return s.Selection() })},
			"filters":   &graphql.Field{Type: t.filters, Resolve: sessionField(func(s *session.Session) any { return filtersOf(s) })},
			"query": &graphql.Field{Type: graphql.String, Resolve: sessionField(func(s *session.Session) any {
				q, _ := s.Query()
				return q
			})},
			"matches": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: sessionField(func(s *session.Session) any {
				_, m := s.Query()
				return m
			})},
			"status": &graphql.Field{
				Type:        graphql.String,
				Description: "Visibility of a node: visible, faded or hidden",
				Args: graphql.FieldConfigArgument{
					"node": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, ok := p.Source.(*session.Session)
					if !ok {
						return nil, nil
					}
					id, _ := p.Args["node"].(string)
					return s.Visibility().NodeStatus(id).String(), nil
				},
			},
		},
	})

	t.stats = graphql.NewObject(graphql.ObjectConfig{
		Name: "GraphStats",
		Fields: graphql.Fields{
			"nodes":      &graphql.Field{Type: graphql.Int},
			"edges":      &graphql.Field{Type: graphql.Int},
			"dangling":   &graphql.Field{Type: graphql.Int},
			"duplicates": &graphql.Field{Type: graphql.Int},
			"predicates": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})
	return t
}

func nodeField(get func(*graph.Node) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if n, ok := p.Source.(*graph.Node); ok {
			return get(n), nil
		}
		return nil, nil
	}
}

func edgeField(get func(*graph.Edge) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if e, ok := p.Source.(*graph.Edge); ok {
			return get(e), nil
		}
		return nil, nil
	}
}

func sessionField(get func(*session.Session) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if s, ok := p.Source.(*session.Session); ok {
			return get(s), nil
		}
		return nil, nil
	}
}

// filtersOf flattens a session's filter state into the map the default
// resolvers read
func filtersOf(s *session.Session) map[string]any {
	st := s.Filters()
	preds := make([]string, 0, len(st.Predicates))
	for _, p := range st.ActivePredicates() {
		preds = append(preds, string(p))
	}
	kinds := make([]string, 0, len(st.Kinds))
	for _, k := range st.ActiveKinds() {
		kinds = append(kinds, string(k))
	}
	return map[string]any{
		"predicates":  preds,
		"kinds":       kinds,
		"focus":       st.FocusedFramework,
		"showOrphans": st.ShowOrphans,
		"showLabels":  st.ShowLabels,
		"layout":      string(st.Layout),
	}
}
