package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
)

// S3Location is a parsed s3:// URI. The query may carry region and endpoint
// (for S3-compatible stores, which also switches to path-style addressing).
type S3Location struct {
	Bucket   string
	Key      string
	Region   string
	Endpoint string
}

// Compressed reports whether the object holds a snappy snapshot
func (l S3Location) Compressed() bool { return strings.HasSuffix(l.Key, CompressedExt) }

func (l S3Location) String() string { return "s3://" + l.Bucket + "/" + l.Key }

// ParseS3URI parses s3://bucket/key?region=...&endpoint=...
func ParseS3URI(uri string) (S3Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return S3Location{}, err
	}
	if u.Scheme != "s3" {
		return S3Location{}, fmt.Errorf("not an s3 uri: %q", uri)
	}
	loc := S3Location{
		Bucket:   u.Host,
		Key:      strings.TrimPrefix(u.Path, "/"),
		Region:   u.Query().Get("region"),
		Endpoint: u.Query().Get("endpoint"),
	}
	if loc.Bucket == "" || loc.Key == "" {
		return S3Location{}, fmt.Errorf("s3 uri needs bucket and key: %q", uri)
	}
	return loc, nil
}

// S3Source reads and writes snapshots stored as S3 objects
type S3Source struct {
	loc    S3Location
	client *s3.Client
}

// NewS3Source builds a client from the default AWS configuration chain.
// GRC_S3_ACCESS_KEY_ID and GRC_S3_SECRET_ACCESS_KEY override it with static
// credentials.
func NewS3Source(ctx context.Context, uri string) (*S3Source, error) {
	loc, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if loc.Region != "" {
		opts = append(opts, awsconfig.WithRegion(loc.Region))
	}
	if key, secret := os.Getenv("GRC_S3_ACCESS_KEY_ID"), os.Getenv("GRC_S3_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, loadErr(loc.String(), "configure", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if loc.Endpoint != "" {
			o.BaseEndpoint = aws.String(loc.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{loc: loc, client: client}, nil
}

func (s *S3Source) String() string { return s.loc.String() }

// Close is a no-op
func (s *S3Source) Close() error { return nil }

// Load downloads and decodes the snapshot object
func (s *S3Source) Load(ctx context.Context) (*graph.Payload, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(s.loc.Key),
	})
	if err != nil {
		return nil, loadErr(s.String(), "get object", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, loadErr(s.String(), "read", err)
	}
	if s.loc.Compressed() {
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

// Write uploads p as the snapshot object
func (s *S3Source) Write(ctx context.Context, p *graph.Payload) error {
	data, err := EncodeSnapshot(p, s.loc.Compressed())
	if err != nil {
		return loadErr(s.String(), "encode", err)
	}
	contentType := "application/json"
	if s.loc.Compressed() {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.loc.Bucket),
		Key:         aws.String(s.loc.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return loadErr(s.String(), "put object", err)
	}
	return nil
}
