// Package etcd provides a resolver.Source reading documents from etcd.
//
// Each document is stored as the value of prefix+ref, encoded with a codec
// and optionally compressed (the compression follows the ref's extension).
package etcd

import (
	"context"
	"fmt"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/codec"
	"github.com/chozen2see/catalogsearch/resolver"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "/catalog/docs/"

// KV is the subset of clientv3.KV used by Source. *clientv3.Client satisfies it.
type KV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
}

// Source reads documents from etcd.
type Source struct {
	kv     KV
	prefix string
	codec  codec.Codec
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Source) { s.prefix = prefix }
}

// WithCodec sets the document codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Source) { s.codec = c }
}

// New creates a Source over kv.
func New(kv KV, opts ...Option) *Source {
	s := &Source{
		kv:     kv,
		prefix: DefaultPrefix,
		codec:  codec.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to the given endpoints and returns a Source plus the client,
// which the caller must close.
func Dial(endpoints []string, opts ...Option) (*Source, *clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return New(cli, opts...), cli, nil
}

// Fetch reads the document stored under key.
func (s *Source) Fetch(ctx context.Context, key string) (catalog.Document, error) {
	resp, err := s.kv.Get(ctx, s.prefix+key)
	if err != nil {
		return catalog.Document{}, fmt.Errorf("failed to get %q from etcd: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return catalog.Document{}, fmt.Errorf("%w: %s", resolver.ErrNotFound, key)
	}

	var d catalog.Document
	if err := catalog.DecodeDocument(s.codec, key, resp.Kvs[0].Value, &d); err != nil {
		return catalog.Document{}, err
	}
	return d, nil
}

// Store writes d under key, for seeding.
func (s *Source) Store(ctx context.Context, key string, d catalog.Document) error {
	data, err := catalog.EncodeDocument(s.codec, key, d)
	if err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, s.prefix+key, string(data)); err != nil {
		return fmt.Errorf("failed to put %q to etcd: %w", key, err)
	}
	return nil
}
