package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snd_media/server/catalog/service"
	"snd_media/server/common/infra/cache"
	"snd_media/server/common/infra/db"
	"snd_media/server/common/infra/object"
	commonlog "snd_media/server/common/log"
)

const connectTimeout = 10 * time.Second

// OpenLoader builds the loader for cfg.Kind. The returned close func releases any connection
// and is never nil.
func OpenLoader(ctx context.Context, cfg SourceConfig) (service.Loader, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", SourceFile:
		return service.FileLoader{Path: cfg.File}, noop, nil

	case SourceRedis:
		client := cache.NewClient(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := cache.Ping(pingCtx, client); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		commonlog.Infof("loading catalog from redis %s key %s", cfg.RedisAddr, cfg.RedisKey)
		return service.RedisLoader{Client: client, Key: cfg.RedisKey}, func() { _ = client.Close() }, nil

	case SourcePostgres:
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		pool, err := db.NewPool(connCtx, cfg.PostgresDSN, 2)
		if err != nil {
			return nil, noop, err
		}
		commonlog.Infof("loading catalog from postgres table %s", cfg.Table)
		return service.PostgresLoader{DB: pool, Table: cfg.Table}, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown catalog source %q (want file, redis or postgres)", cfg.Kind)
	}
}

func OpenSink(ctx context.Context, cfg SinkConfig) (service.Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", SinkDir:
		return service.DirSink{Dir: cfg.Dir}, nil

	case SinkMinIO:
		client, err := object.NewClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		bucketCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := object.EnsureBucket(bucketCtx, client, cfg.Bucket, cfg.MinIO.Region); err != nil {
			return nil, err
		}
		commonlog.Infof("writing catalog artifacts to minio %s/%s", cfg.Bucket, cfg.Prefix)
		return service.MinIOSink{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil

	default:
		return nil, fmt.Errorf("unknown catalog sink %q (want dir or minio)", cfg.Kind)
	}
}
