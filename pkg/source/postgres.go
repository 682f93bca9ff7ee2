package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS grc_nodes (
	position   INTEGER PRIMARY KEY,
	id         TEXT NOT NULL,
	type       TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	props      JSONB
);

CREATE TABLE IF NOT EXISTS grc_edges (
	position   INTEGER PRIMARY KEY,
	id         TEXT,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	predicate  TEXT NOT NULL,
	plane      TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION,
	meta       JSONB
);
`

// PostgresSource reads the graph from the grc_nodes and grc_edges tables.
// Row order is kept through the position column.
type PostgresSource struct {
	uri  string
	pool *pgxpool.Pool
}

// NewPostgresSource creates a connection pool for uri. Connections are
// established on first use.
func NewPostgresSource(ctx context.Context, uri string) (*PostgresSource, error) {
	config, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 4
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &PostgresSource{uri: Redact(uri), pool: pool}, nil
}

func (s *PostgresSource) String() string { return s.uri }

// Close closes the pool
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks database connectivity
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Load reads every node and edge in position order
func (s *PostgresSource) Load(ctx context.Context) (*graph.Payload, error) {
	p := &graph.Payload{}

	rows, err := s.pool.Query(ctx, `SELECT id, type, label, props FROM grc_nodes ORDER BY position`)
	if err != nil {
		return nil, loadErr(s.uri, "query nodes", err)
	}
	for rows.Next() {
		var rec graph.NodeRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Label, &rec.Props); err != nil {
			rows.Close()
			return nil, loadErr(s.uri, "scan node", err)
		}
		p.Nodes = append(p.Nodes, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, loadErr(s.uri, "read nodes", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT coalesce(id, ''), source, target, predicate, plane, confidence, meta FROM grc_edges ORDER BY position`)
	if err != nil {
		return nil, loadErr(s.uri, "query edges", err)
	}
	for rows.Next() {
		var rec graph.EdgeRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Target, &rec.Predicate, &rec.Plane, &rec.Confidence, &rec.Meta); err != nil {
			rows.Close()
			return nil, loadErr(s.uri, "scan edge", err)
		}
		p.Edges = append(p.Edges, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, loadErr(s.uri, "read edges", err)
	}

	p.Stats = payloadStats(p)
	return p, nil
}

// Write replaces the table contents with p in one transaction
func (s *PostgresSource) Write(ctx context.Context, p *graph.Payload) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return loadErr(s.uri, "begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, pgSchema); err != nil {
		return loadErr(s.uri, "migrate", err)
	}
	if _, err := tx.Exec(ctx, `TRUNCATE grc_nodes, grc_edges`); err != nil {
		return loadErr(s.uri, "truncate", err)
	}

	nodeRows := make([][]any, 0, len(p.Nodes))
	for i, n := range p.Nodes {
		nodeRows = append(nodeRows, []any{i, n.ID, n.Type, n.Label, n.Props})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"grc_nodes"},
		[]string{"position", "id", "type", "label", "props"}, pgx.CopyFromRows(nodeRows)); err != nil {
		return loadErr(s.uri, "copy nodes", err)
	}

	edgeRows := make([][]any, 0, len(p.Edges))
	for i, e := range p.Edges {
		var id *string
		if e.ID != "" {
			id = &e.ID
		}
		edgeRows = append(edgeRows, []any{i, id, e.Source, e.Target, e.Predicate, e.Plane, e.Confidence, e.Meta})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"grc_edges"},
		[]string{"position", "id", "source", "target", "predicate", "plane", "confidence", "meta"}, pgx.CopyFromRows(edgeRows)); err != nil {
		return loadErr(s.uri, "copy edges", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return loadErr(s.uri, "commit", err)
	}
	return nil
}
