package snapshot

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// GCS writes snapshots into a Cloud Storage bucket under a fixed prefix.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS wraps an existing storage client.
func NewGCS(client *storage.Client, bucket, prefix string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Put uploads the snapshot and returns a gs:// URI.
func (g *GCS) Put(ctx context.Context, name string, html []byte) (string, error) {
	path := name
	if g.prefix != "" {
		path = g.prefix + "/" + name
	}
	w := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	w.ContentType = "text/html; charset=utf-8"
	if _, err := w.Write(html); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write snapshot object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close snapshot writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, path), nil
}
