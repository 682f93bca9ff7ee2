package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
)

// DefaultSearchLimit caps search_nodes results
const DefaultSearchLimit = 20

// Service implements the assistant tools over the sessions of a store
type Service struct {
	store      *session.Store
	newSession func() (*session.Session, error)
	logger     logging.Logger
}

// NewService creates the tool service. newSession creates the session used
// when a call names none and the store is empty; nil creates a session
// without a renderer.
func NewService(store *session.Store, newSession func() (*session.Session, error), logger logging.Logger) *Service {
	if newSession == nil {
		newSession = func() (*session.Session, error) { return store.Create(nil, nil) }
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{store: store, newSession: newSession, logger: logger.With(logging.Component("mcp"))}
}

// session resolves the target session: the named one, else the most
// recently created, else a new one
func (s *Service) session(id string) (*session.Session, error) {
	if id != "" {
		return s.store.Get(id)
	}
	if ids := s.store.IDs(); len(ids) > 0 {
		if sess, err := s.store.Get(ids[len(ids)-1]); err == nil {
			return sess, nil
		}
	}
	sess, err := s.newSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// --- Tool Handlers ---

func (s *Service) GetSelectedNode(ctx context.Context, req *mcp.CallToolRequest, args SessionArgs) (*mcp.CallToolResult, SelectedResult, error) {
	sess, err := s.session(args.Session)
	if err != nil {
		return nil, SelectedResult{}, err
	}
	out := SelectedResult{Session: sess.ID()}
	id, ok := sess.SelectedNodeID()
	if !ok {
		return nil, out, nil
	}
	detail, err := sess.NodeDetail(id)
	if err != nil {
		return nil, out, err
	}
	out.Selected = true
	out.Node = detail
	return nil, out, nil
}

func (s *Service) NavigateToNode(ctx context.Context, req *mcp.CallToolRequest, args NavigateArgs) (*mcp.CallToolResult, NavigateResult, error) {
	if args.ID == "" {
		return nil, NavigateResult{}, errors.New("id is required")
	}
	sess, err := s.session(args.Session)
	if err != nil {
		return nil, NavigateResult{}, err
	}
	ok := sess.NavigateFrom(session.OriginMCP, args.ID)
	s.logger.Debug("navigate", logging.SessionID(sess.ID()), logging.NodeID(args.ID), logging.Bool("ok", ok))
	return nil, NavigateResult{Session: sess.ID(), Navigated: ok}, nil
}

func (s *Service) SearchNodes(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchResult, error) {
	sess, err := s.session(args.Session)
	if err != nil {
		return nil, SearchResult{}, err
	}
	sess.Search(args.Query)
	query, matches := sess.Query()

	limit := args.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	out := SearchResult{Session: sess.ID(), Query: query, Total: len(matches), Matches: []NodeSummary{}}
	g := sess.Graph()
	for _, id := range matches {
		if len(out.Matches) >= limit {
			break
		}
		if n, ok := g.Node(id); ok {
			out.Matches = append(out.Matches, NodeSummary{ID: n.ID, Kind: string(n.Kind), Label: n.Label})
		}
	}
	return nil, out, nil
}

func (s *Service) FocusFramework(ctx context.Context, req *mcp.CallToolRequest, args FocusArgs) (*mcp.CallToolResult, FocusResult, error) {
	sess, err := s.session(args.Session)
	if err != nil {
		return nil, FocusResult{}, err
	}
	if args.Framework != "" {
		n, ok := sess.Graph().Node(args.Framework)
		if !ok || n.Kind != graph.KindFramework {
			return nil, FocusResult{}, fmt.Errorf("%q is not a framework: %w", args.Framework, graph.ErrNodeNotFound)
		}
	}
	sess.SetFocusedFramework(args.Framework)
	nodes, edges := sess.Counts()
	return nil, FocusResult{
		Session:      sess.ID(),
		Focus:        sess.Filters().FocusedFramework,
		VisibleNodes: nodes,
		VisibleEdges: edges,
	}, nil
}

func (s *Service) DescribeNode(ctx context.Context, req *mcp.CallToolRequest, args DescribeArgs) (*mcp.CallToolResult, session.NodeDetail, error) {
	sess, err := s.session(args.Session)
	if err != nil {
		return nil, session.NodeDetail{}, err
	}
	detail, err := sess.NodeDetail(args.ID)
	if err != nil {
		return nil, session.NodeDetail{}, err
	}
	return nil, *detail, nil
}

func (s *Service) VisibleCounts(ctx context.Context, req *mcp.CallToolRequest, args SessionArgs) (*mcp.CallToolResult, CountsResult, error) {
	sess, err := s.session(args.Session)
	if err != nil {
		return nil, CountsResult{}, err
	}
	nodes, edges := sess.Counts()
	g := sess.Graph()
	return nil, CountsResult{
		Session:      sess.ID(),
		VisibleNodes: nodes,
		VisibleEdges: edges,
		TotalNodes:   g.NodeCount(),
		TotalEdges:   g.EdgeCount(),
		Focus:        sess.Visibility().Focus,
	}, nil
}
