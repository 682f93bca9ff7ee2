package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

const (
	neo4jNodesQuery = `
MATCH (n)
WHERE n.id IS NOT NULL
RETURN n.id AS id, coalesce(n.type, head(labels(n))) AS type, coalesce(n.label, n.id) AS label, properties(n) AS props
ORDER BY id`

	neo4jEdgesQuery = `
MATCH (s)-[r]->(o)
WHERE s.id IS NOT NULL AND o.id IS NOT NULL
RETURN s.id AS source, o.id AS target, type(r) AS predicate, coalesce(r.plane, '') AS plane,
       r.confidence AS confidence, properties(r) AS props
ORDER BY source, predicate, target`
)

// Neo4jTarget is a parsed neo4j:// or bolt:// URI. Credentials come from the
// user info and the database from the path.
type Neo4jTarget struct {
	URI      string
	Username string
	Password string
	Database string
}

// ParseNeo4jURI splits credentials and database out of uri
func ParseNeo4jURI(uri string) (Neo4jTarget, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Neo4jTarget{}, err
	}
	t := Neo4jTarget{Database: strings.Trim(u.Path, "/")}
	if u.User != nil {
		t.Username = u.User.Username()
		t.Password, _ = u.User.Password()
	}
	u.User = nil
	u.Path = ""
	t.URI = u.String()
	return t, nil
}

// Neo4jSource reads nodes carrying an id property and the relationships
// between them
type Neo4jSource struct {
	target Neo4jTarget
	driver neo4j.DriverWithContext
}

// NewNeo4jSource creates a driver for uri. The driver connects lazily.
func NewNeo4jSource(uri string) (*Neo4jSource, error) {
	t, err := ParseNeo4jURI(uri)
	if err != nil {
		return nil, err
	}
	auth := neo4j.NoAuth()
	if t.Username != "" {
		auth = neo4j.BasicAuth(t.Username, t.Password, "")
	}
	driver, err := neo4j.NewDriverWithContext(t.URI, auth)
	if err != nil {
		return nil, loadErr(t.URI, "connect", err)
	}
	return &Neo4jSource{target: t, driver: driver}, nil
}

func (s *Neo4jSource) String() string { return s.target.URI }

// Close closes the driver
func (s *Neo4jSource) Close() error {
	return s.driver.Close(context.Background())
}

// Load runs the node and relationship queries
func (s *Neo4jSource) Load(ctx context.Context) (*graph.Payload, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if s.target.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.target.Database))
	}

	nodes, err := neo4j.ExecuteQuery(ctx, s.driver, neo4jNodesQuery, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, loadErr(s.String(), "query nodes", err)
	}
	p := &graph.Payload{}
	for _, rec := range nodes.Records {
		n, err := nodeFromRecord(rec)
		if err != nil {
			return nil, loadErr(s.String(), "read node", err)
		}
		p.Nodes = append(p.Nodes, n)
	}

	edges, err := neo4j.ExecuteQuery(ctx, s.driver, neo4jEdgesQuery, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, loadErr(s.String(), "query edges", err)
	}
	for _, rec := range edges.Records {
		e, err := edgeFromRecord(rec)
		if err != nil {
			return nil, loadErr(s.String(), "read edge", err)
		}
		p.Edges = append(p.Edges, e)
	}

	p.Stats = payloadStats(p)
	return p, nil
}

func nodeFromRecord(rec *neo4j.Record) (graph.NodeRecord, error) {
	var n graph.NodeRecord
	var err error
	if n.ID, _, err = neo4j.GetRecordValue[string](rec, "id"); err != nil {
		return n, err
	}
	if n.Type, _, err = neo4j.GetRecordValue[string](rec, "type"); err != nil {
		return n, err
	}
	if n.Label, _, err = neo4j.GetRecordValue[string](rec, "label"); err != nil {
		return n, err
	}
	props, _, err := neo4j.GetRecordValue[map[string]any](rec, "props")
	if err != nil {
		return n, err
	}
	for k, v := range props {
		switch k {
		case "id", "type", "label":
			continue
		}
		if n.Props == nil {
			n.Props = make(map[string]any)
		}
		n.Props[k] = v
	}
	return n, nil
}

func edgeFromRecord(rec *neo4j.Record) (graph.EdgeRecord, error) {
	var e graph.EdgeRecord
	var err error
	if e.Source, _, err = neo4j.GetRecordValue[string](rec, "source"); err != nil {
		return e, err
	}
	if e.Target, _, err = neo4j.GetRecordValue[string](rec, "target"); err != nil {
		return e, err
	}
	if e.Predicate, _, err = neo4j.GetRecordValue[string](rec, "predicate"); err != nil {
		return e, err
	}
	if e.Plane, _, err = neo4j.GetRecordValue[string](rec, "plane"); err != nil {
		return e, err
	}
	confidence, isNil, err := neo4j.GetRecordValue[float64](rec, "confidence")
	if err != nil {
		return e, err
	}
	if !isNil {
		e.Confidence = &confidence
	}
	props, _, err := neo4j.GetRecordValue[map[string]any](rec, "props")
	if err != nil {
		return e, err
	}
	for k, v := range props {
		switch k {
		case "plane", "confidence":
			continue
		}
		if e.Meta == nil {
			e.Meta = make(map[string]string)
		}
		e.Meta[k] = fmt.Sprint(v)
	}
	return e, nil
}
