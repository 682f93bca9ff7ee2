package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// CompressedExt marks snappy-compressed snapshot files
const CompressedExt = ".sz"

// FileSource reads a flat JSON snapshot, optionally snappy-compressed, or a
// graph directory holding nodes.json, edges.json and schema.json
type FileSource struct {
	path string
}

// NewFileSource returns a source reading path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file or directory path
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) String() string { return "file://" + s.path }

// Close is a no-op
func (s *FileSource) Close() error { return nil }

// Load reads the snapshot or flattens the graph directory
func (s *FileSource) Load(ctx context.Context) (*graph.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(s.String(), "load", err)
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, loadErr(s.String(), "stat", err)
	}
	if info.IsDir() {
		p, err := LoadDir(s.path)
		if err != nil {
			return nil, loadErr(s.String(), "flatten", err)
		}
		return p, nil
	}

	data, err := readMapped(s.path)
	if err != nil {
		return nil, loadErr(s.String(), "read", err)
	}
	if strings.HasSuffix(s.path, CompressedExt) {
		if data, err = snappy.Decode(nil, data); err != nil {
			return nil, loadErr(s.String(), "decompress", err)
		}
	}
	p, err := graph.DecodePayload(bytes.NewReader(data))
	if err != nil {
		return nil, loadErr(s.String(), "decode", err)
	}
	return p, nil
}

// Write stores p as a snapshot, snappy-compressed when the path ends in .sz.
// The file is replaced atomically.
func (s *FileSource) Write(ctx context.Context, p *graph.Payload) error {
	if err := ctx.Err(); err != nil {
		return loadErr(s.String(), "write", err)
	}
	data, err := EncodeSnapshot(p, strings.HasSuffix(s.path, CompressedExt))
	if err != nil {
		return loadErr(s.String(), "encode", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return loadErr(s.String(), "write", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return loadErr(s.String(), "write", err)
	}
	if err := tmp.Close(); err != nil {
		return loadErr(s.String(), "write", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return loadErr(s.String(), "rename", err)
	}
	return nil
}

// EncodeSnapshot serializes p as JSON, snappy block-compressed on request
func EncodeSnapshot(p *graph.Payload, compress bool) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if compress {
		return snappy.Encode(nil, data), nil
	}
	return data, nil
}

// readMapped reads a whole file through a read-only memory map
func readMapped(path string) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil && r.Len() > 0 {
		return nil, err
	}
	return data, nil
}
