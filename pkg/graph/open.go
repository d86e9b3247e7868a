package graph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures access to s3:// graph locations.
type S3Options struct {
	Endpoint  string // host[:port], e.g. "s3.amazonaws.com" or "localhost:9000"
	AccessKey string // empty: read AWS_* environment variables
	SecretKey string
	Secure    bool
}

// Open loads a graph from a local path or an s3://bucket/key URI.
// Files ending in .json are read as dataset records, everything else as
// the binary format.
func Open(ctx context.Context, uri string, s3 S3Options) (*Graph, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if rest, ok := strings.CutPrefix(uri, "s3://"); ok {
		rc, err = openS3(ctx, rest, s3)
	} else {
		rc, err = os.Open(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	defer rc.Close()

	r := bufio.NewReaderSize(rc, 1<<20)
	if strings.EqualFold(path.Ext(uri), ".json") {
		return ReadJSON(r)
	}
	return Decode(r)
}

func openS3(ctx context.Context, location string, opts S3Options) (io.ReadCloser, error) {
	bucket, key, ok := strings.Cut(location, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 location %q: want bucket/key", location)
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint not configured")
	}

	creds := credentials.NewEnvAWS()
	if opts.AccessKey != "" {
		creds = credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}
