package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"snd_media/server/common/infra/object"
)

// Sink stores one generated artifact under a flat name.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

type DirSink struct {
	Dir string
}

func (s DirSink) Put(_ context.Context, name, _ string, data []byte) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0o644)
}

const objectCacheControl = "public, max-age=300"

type MinIOSink struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func (s MinIOSink) Put(ctx context.Context, name, contentType string, data []byte) error {
	key := object.ObjectKey(s.Prefix, name)
	_, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: objectCacheControl,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

// PutSitemap encodes set and stores it as name.
func PutSitemap(ctx context.Context, sink Sink, name string, set URLSet) error {
	var buf bytes.Buffer
	if err := WriteSitemap(&buf, set); err != nil {
		return err
	}
	return sink.Put(ctx, name, sitemapContentType, buf.Bytes())
}
