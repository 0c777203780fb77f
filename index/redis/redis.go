// Package redis provides an index.Index stored in redis.
//
// Key layout below the configured key:
//
//	<key>:seq         counter used for insertion order
//	<key>:order       sorted set of ids scored by insertion order
//	<key>:docs        hash of id to encoded entry (hit and lower-cased fields)
//	<key>:tri:<gram>  set of ids whose fields contain the trigram
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/codec"
	"github.com/chozen2see/catalogsearch/index"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the key prefix used when none is configured.
const DefaultKey = "catalogsearch:index"

// Options configures the redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Key is the prefix of every key the index writes.
	Key string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration
}

type entry struct {
	Hit    index.Hit `json:"hit"`
	Fields []string  `json:"fields"`
}

// Index is a trigram index stored in redis.
type Index struct {
	client goredis.UniversalClient
	key    string
	codec  codec.Codec
}

// Ensure Index implements index.Index
var _ index.Index = (*Index)(nil)

// New wraps an existing client.
func New(client goredis.UniversalClient, key string) *Index {
	if key == "" {
		key = DefaultKey
	}
	return &Index{client: client, key: key, codec: codec.Default}
}

// Dial connects to redis and verifies the connection.
func Dial(opts Options) (*Index, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := goredis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := goredis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return New(client, opts.Key), nil
}

// Close closes the underlying client.
func (ix *Index) Close() error {
	return ix.client.Close()
}

func (ix *Index) k(parts ...string) string {
	return ix.key + ":" + strings.Join(parts, ":")
}

// Add indexes the lower-cased fields under id. An id already present keeps
// its position and postings.
func (ix *Index) Add(ctx context.Context, id, name string, fields ...string) (bool, error) {
	exists, err := ix.client.HExists(ctx, ix.k("docs"), id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check entry: %w", err)
	}
	if exists {
		return false, nil
	}

	data, err := ix.codec.Marshal(entry{Hit: index.Hit{ID: id, Name: name}, Fields: fields})
	if err != nil {
		return false, fmt.Errorf("failed to marshal entry: %w", err)
	}

	seq, err := ix.client.Incr(ctx, ix.k("seq")).Result()
	if err != nil {
		return false, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := ix.client.TxPipeline()
	pipe.HSet(ctx, ix.k("docs"), id, data)
	pipe.ZAddNX(ctx, ix.k("order"), goredis.Z{Score: float64(seq), Member: id})
	for _, f := range fields {
		for _, g := range index.Trigrams(f) {
			pipe.SAdd(ctx, ix.k("tri", g), id)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to index %q: %w", id, err)
	}
	return true, nil
}

// AddNode indexes n. Unresolved references are skipped.
func (ix *Index) AddNode(ctx context.Context, n *catalog.Node) (bool, error) {
	if !n.IsResolved() {
		return false, nil
	}
	return ix.Add(ctx, n.ID(), n.DisplayName(), index.Fields(n)...)
}

// Load indexes every resolved node of cat.
func (ix *Index) Load(ctx context.Context, cat *catalog.Catalog) (int, error) {
	added := 0
	for _, n := range cat.Nodes() {
		ok, err := ix.AddNode(ctx, n)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Search returns entries whose fields contain query, in insertion order.
func (ix *Index) Search(ctx context.Context, query string) ([]index.Hit, error) {
	q := strings.ToLower(query)
	if q == "" {
		return nil, nil
	}

	ordered, err := ix.client.ZRange(ctx, ix.k("order"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}

	ids := ordered
	if grams := index.Trigrams(q); len(grams) > 0 {
		keys := make([]string, len(grams))
		for i, g := range grams {
			keys[i] = ix.k("tri", g)
		}
		candidates, err := ix.client.SInter(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to intersect trigrams: %w", err)
		}
		set := make(map[string]struct{}, len(candidates))
		for _, id := range candidates {
			set[id] = struct{}{}
		}
		ids = ids[:0:0]
		for _, id := range ordered {
			if _, ok := set[id]; ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	vals, err := ix.client.HMGet(ctx, ix.k("docs"), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	var hits []index.Hit
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e entry
		if err := ix.codec.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		for _, f := range e.Fields {
			if strings.Contains(f, q) {
				hits = append(hits, e.Hit)
				break
			}
		}
	}
	return hits, nil
}

// Clear deletes every key of the index.
func (ix *Index) Clear(ctx context.Context) error {
	iter := ix.client.Scan(ctx, 0, ix.key+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return ix.client.Del(ctx, keys...).Err()
}
