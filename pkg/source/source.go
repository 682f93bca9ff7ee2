// Package source loads graph payloads from snapshot files, graph directories,
// object storage and graph or relational databases.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

var (
	// ErrUnsupportedSource is returned for URIs with an unknown scheme
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrReadOnly is returned when writing to a source that cannot store payloads
	ErrReadOnly = errors.New("source is read-only")
)

// Source produces graph payloads
type Source interface {
	// Load reads a complete payload
	Load(ctx context.Context) (*graph.Payload, error)
	// String returns the source URI without credentials
	String() string
	Close() error
}

// Writer is implemented by sources that can store a payload
type Writer interface {
	Write(ctx context.Context, p *graph.Payload) error
}

// LoadError describes a failed source operation
type LoadError struct {
	Source string
	Op     string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Op, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

func loadErr(src, op string, cause error) error {
	return &LoadError{Source: src, Op: op, Cause: cause}
}

// Scheme returns the scheme of uri, "file" for plain paths
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return "file"
	}
	return strings.ToLower(uri[:i])
}

// Open returns the source for uri. Plain paths and file:// URIs name a
// snapshot file or a graph directory.
func Open(ctx context.Context, uri string) (Source, error) {
	switch Scheme(uri) {
	case "file":
		return NewFileSource(strings.TrimPrefix(uri, "file://")), nil
	case "s3":
		return NewS3Source(ctx, uri)
	case "postgres", "postgresql":
		return NewPostgresSource(ctx, uri)
	case "neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc":
		return NewNeo4jSource(uri)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, Redact(uri))
	}
}

// Redact removes the password from uri
func Redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, ok := u.User.Password(); !ok {
		return uri
	}
	return u.Redacted()
}
