package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/chozen2see/catalogsearch"
	"github.com/chozen2see/catalogsearch/blobstore"
	miniostore "github.com/chozen2see/catalogsearch/blobstore/minio"
	s3store "github.com/chozen2see/catalogsearch/blobstore/s3"
	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/index"
	redisindex "github.com/chozen2see/catalogsearch/index/redis"
	"github.com/chozen2see/catalogsearch/resolver"
	ddbsource "github.com/chozen2see/catalogsearch/resolver/dynamodb"
	etcdsource "github.com/chozen2see/catalogsearch/resolver/etcd"
	"github.com/chozen2see/catalogsearch/resource"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// app holds process-wide state shared by commands.
type app struct {
	configPath string

	// memory backs the "memory" catalog backend for the process lifetime.
	memory *blobstore.MemoryStore
}

func newApp() *app {
	return &app{memory: blobstore.NewMemoryStore()}
}

func (a *app) loadConfig() (catalogsearch.Config, error) {
	if a.configPath == "" {
		cfg := catalogsearch.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return catalogsearch.LoadConfig(a.configPath)
}

// env is everything a command needs, built from a Config.
type env struct {
	cfg      catalogsearch.Config
	store    blobstore.BlobStore
	cat      *catalog.Catalog
	searcher *catalogsearch.Searcher
	blob     *resolver.Blob
	redis    *redisindex.Index
	closers  []func() error
}

func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// open loads the catalog and wires the resolver and index. withIndex=false
// skips the fast path even if one is configured.
func (a *app) open(ctx context.Context, cfg catalogsearch.Config, withIndex bool) (*env, error) {
	e := &env{cfg: cfg}

	store, err := a.openStore(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	e.store = store

	e.cat, err = catalog.LoadSnapshot(ctx, store, cfg.Catalog.Snapshot, nil)
	if err != nil {
		return nil, err
	}

	opts := cfg.Options()

	src, err := a.openSource(ctx, e)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	if src != nil {
		src = resolver.Limit(src, resource.NewController(cfg.ResourceConfig()))
		logger := cfg.Logger()
		opts = append(opts, catalogsearch.WithResolver(resolver.New(e.cat, src, resolver.WithLogger(logger.Logger))))
	}

	e.searcher, err = catalogsearch.New(e.cat, opts...)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	if !withIndex {
		return e, nil
	}

	idx, err := a.openIndex(ctx, e)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	if idx != nil {
		e.searcher, err = catalogsearch.New(e.cat, append(opts, catalogsearch.WithIndex(idx))...)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
	}
	return e, nil
}

func (a *app) openStore(ctx context.Context, c catalogsearch.CatalogConfig) (blobstore.BlobStore, error) {
	switch c.Backend {
	case "memory":
		return a.memory, nil
	case "local":
		return blobstore.NewLocalStore(c.Path), nil
	case "s3":
		var opts []s3store.Option
		if c.Prefix != "" {
			opts = append(opts, s3store.WithPrefix(c.Prefix))
		}
		if c.Region != "" {
			opts = append(opts, s3store.WithRegion(c.Region))
		}
		if c.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(c.Endpoint))
		}
		store, err := s3store.New(ctx, c.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		client, err := minio.New(c.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
			Secure: c.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return miniostore.NewStore(client, c.Bucket, c.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", c.Backend)
	}
}

func (a *app) openSource(ctx context.Context, e *env) (resolver.Source, error) {
	rc := e.cfg.Resolver
	switch rc.Source {
	case "none":
		return nil, nil
	case "", "blob":
		opts := []resolver.BlobOption{resolver.WithPrefix(rc.Prefix)}
		if rc.CacheBytes > 0 {
			opts = append(opts, resolver.WithCacheBytes(rc.CacheBytes))
		}
		e.blob = resolver.NewBlob(e.store, opts...)
		return e.blob, nil
	case "etcd":
		var opts []etcdsource.Option
		if rc.Prefix != "" {
			opts = append(opts, etcdsource.WithPrefix(rc.Prefix))
		}
		src, cli, err := etcdsource.Dial(rc.Endpoints, opts...)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, cli.Close)
		return src, nil
	case "dynamodb":
		src, err := ddbsource.NewFromConfig(ctx, rc.Table)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown resolver source %q", rc.Source)
	}
}

// openIndex connects the configured index. A memory index is built here, so
// every reference is resolved first: the fast path replaces traversal and
// would otherwise miss everything behind a reference.
func (a *app) openIndex(ctx context.Context, e *env) (index.Index, error) {
	ic := e.cfg.Index
	switch ic.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		if !e.cat.ReferencesLoaded() {
			if _, err := e.searcher.LoadReferences(ctx); err != nil {
				return nil, fmt.Errorf("load references: %w", err)
			}
		}
		return index.Build(e.cat), nil
	case "redis":
		idx, err := redisindex.Dial(redisindex.Options{URL: ic.URL, Key: ic.Key})
		if err != nil {
			return nil, err
		}
		e.redis = idx
		e.closers = append(e.closers, idx.Close)
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", ic.Backend)
	}
}
