// Package graphql exposes the knowledge graph and live sessions through a
// GraphQL schema.
package graphql

import (
	"errors"
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/interaction"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// ErrNoGraph is returned by resolvers before the first graph load
var ErrNoGraph = errors.New("graph not loaded")

// Backend is what the schema resolves against. Graph queries read the graph
// of new sessions; session fields read the session's own graph.
type Backend struct {
	Sessions *session.Store
	Limits   LimitConfig
}

func (b *Backend) graph() *graph.Graph {
	return b.Sessions.Graph()
}

func (b *Backend) session(p graphql.ResolveParams) (*session.Session, error) {
	id, _ := p.Args["session"].(string)
	return b.Sessions.Get(id)
}

// NewSchema builds the schema over b
func NewSchema(b *Backend) (graphql.Schema, error) {
	if b.Limits.MaxLimit == 0 {
		b.Limits = DefaultLimits
	}
	if err := ValidateLimitConfig(&b.Limits); err != nil {
		return graphql.Schema{}, err
	}
	t := newTypes(b)

	limitArg := &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: -1}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"node": &graphql.Field{
				Type: t.node,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: b.resolveNode,
			},
			"nodes": &graphql.Field{
				Type:        graphql.NewList(t.node),
				Description: "Nodes in payload order, optionally of one kind",
				Args: graphql.FieldConfigArgument{
					"kind":  &graphql.ArgumentConfig{Type: graphql.String},
					"limit": limitArg,
				},
				Resolve: b.resolveNodes,
			},
			"search": &graphql.Field{
				Type:        graphql.NewList(t.node),
				Description: "Nodes whose id or label contains the query, case-insensitively",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": limitArg,
				},
				Resolve: b.resolveSearch,
			},
			"frameworks": &graphql.Field{
				Type:    graphql.NewList(t.node),
				Resolve: b.resolveFrameworks,
			},
			"edge": &graphql.Field{
				Type: t.edge,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: b.resolveEdge,
			},
			"stats": &graphql.Field{
				Type:    t.stats,
				Resolve: b.resolveStats,
			},
			"session": &graphql.Field{
				Type: t.session,
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return b.session(p)
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"navigate": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "Select a node in a session and center the view on it. False when the node does not exist.",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, err := b.session(p)
					if err != nil {
						return nil, err
					}
					id, _ := p.Args["id"].(string)
					return s.NavigateFrom(session.OriginGraphQL, id), nil
				},
			},
			"focusFramework": &graphql.Field{
				Type:        t.session,
				Description: "Focus a framework; an empty id clears the focus",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"id":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, err := b.session(p)
					if err != nil {
						return nil, err
					}
					id, _ := p.Args["id"].(string)
					if id != "" {
						if n, ok := s.Graph().Node(id); !ok || n.Kind != graph.KindFramework {
							return nil, fmt.Errorf("%q is not a framework: %w", id, graph.ErrNodeNotFound)
						}
					}
					s.SetFocusedFramework(id)
					return s, nil
				},
			},
			"search": &graphql.Field{
				Type: t.session,
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"query":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, err := b.session(p)
					if err != nil {
						return nil, err
					}
					q, _ := p.Args["query"].(string)
					s.Search(q)
					return s, nil
				},
			},
			"clearSelection": &graphql.Field{
				Type: t.session,
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, err := b.session(p)
					if err != nil {
						return nil, err
					}
					s.Cancel()
					return s, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func (b *Backend) loaded() (*graph.Graph, error) {
	g := b.graph()
	if g == nil {
		return nil, ErrNoGraph
	}
	return g, nil
}

func (b *Backend) resolveNode(p graphql.ResolveParams) (any, error) {
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	id, _ := p.Args["id"].(string)
	if n, ok := g.Node(id); ok {
		return n, nil
	}
	return nil, nil
}

func (b *Backend) resolveEdge(p graphql.ResolveParams) (any, error) {
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	id, _ := p.Args["id"].(string)
	if e, ok := g.Edge(id); ok {
		return e, nil
	}
	return nil, nil
}

func (b *Backend) resolveNodes(p graphql.ResolveParams) (any, error) {
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	kind, _ := p.Args["kind"].(string)
	limit := applyLimit(intArg(p, "limit"), &b.Limits)

	out := make([]*graph.Node, 0, limit)
	for _, n := range g.Nodes() {
		if len(out) >= limit {
			break
		}
		if kind != "" && string(n.Kind) != kind {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *Backend) resolveSearch(p graphql.ResolveParams) (any, error) {
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	raw, _ := p.Args["query"].(string)
	q := interaction.NormalizeQuery(raw)
	if len(q) < interaction.MinQueryLength {
		return []*graph.Node{}, nil
	}
	limit := applyLimit(intArg(p, "limit"), &b.Limits)

	ids := interaction.MatchNodes(g, q)
	out := make([]*graph.Node, 0, min(len(ids), limit))
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		if n, ok := g.Node(id); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (b *Backend) resolveFrameworks(p graphql.ResolveParams) (any, error) {
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	return g.Frameworks(), nil
}

func (b *Backend) resolveStats(p graphql.ResolveParams) (any, error) {
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	preds := make([]string, 0)
	for _, pr := range g.UsedPredicates() {
		preds = append(preds, string(pr))
	}
	return map[string]any{
		"nodes":      g.NodeCount(),
		"edges":      g.EdgeCount(),
		"dangling":   g.DanglingCount(),
		"duplicates": g.Duplicates(),
		"predicates": preds,
	}, nil
}

func (b *Backend) resolveNodeEdges(p graphql.ResolveParams) (any, error) {
	n, ok := p.Source.(*graph.Node)
	if !ok {
		return nil, nil
	}
	g, err := b.loaded()
	if err != nil {
		return nil, err
	}
	direction, _ := p.Args["direction"].(string)
	predicate, _ := p.Args["predicate"].(string)

	var out []*graph.Edge
	for _, e := range g.IncidentEdges(n.ID) {
		if predicate != "" && string(e.Predicate) != predicate {
			continue
		}
		switch direction {
		case "out":
			if e.Source != n.ID {
				continue
			}
		case "in":
			if e.Target != n.ID {
				continue
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Predicate.Rank() < out[j].Predicate.Rank() })
	return out, nil
}

func (b *Backend) resolveEndpoint(end func(*graph.Edge) string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		e, ok := p.Source.(*graph.Edge)
		if !ok {
			return nil, nil
		}
		g, err := b.loaded()
		if err != nil {
			return nil, err
		}
		if n, ok := g.Node(end(e)); ok {
			return n, nil
		}
		return nil, nil
	}
}

func intArg(p graphql.ResolveParams, name string) int {
	if v, ok := p.Args[name].(int); ok {
		return v
	}
	return -1
}
