package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLocalBinary(t *testing.T) {
	g, err := New(triangleInput())
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "graph.bin")
	require.NoError(t, WriteBinary(p, g, CodecZstd))

	loaded, err := Open(context.Background(), p, S3Options{})
	require.NoError(t, err)
	assert.Equal(t, g, loaded)
}

func TestOpenLocalJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "graph.json")
	doc := `{"nodes":[{"latitude":1,"longitude":2}],"ways":[],"offset":[0,0]}`
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	g, err := Open(context.Background(), p, S3Options{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), g.NumNodes)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.bin"), S3Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenS3BadLocation(t *testing.T) {
	_, err := Open(context.Background(), "s3://bucket-only", S3Options{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "want bucket/key")

	_, err = Open(context.Background(), "s3://bucket/key.bin", S3Options{})
	assert.ErrorContains(t, err, "endpoint not configured")
}
