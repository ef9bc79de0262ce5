// Package cache keeps the top-3 rankings in Redis between writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/restocatalog/go-services/internal/restaurant"
	"github.com/restocatalog/go-services/internal/restaurant/schema"
	"github.com/restocatalog/go-services/pkg/metrics"
)

// Variant names one of the two ranking queries.
type Variant string

const (
	Top3       Variant = "top3"
	Top3Lookup Variant = "top3:lookup"
)

// errStaleGeneration aborts a Set that lost to an invalidation.
var errStaleGeneration = errors.New("ranking generation changed")

// RankingCache stores rankings as JSON under "<prefix><variant>" with a TTL.
// "<prefix>gen" counts invalidations; a ranking is only stored when no
// invalidation happened since it was loaded.
// A nil *RankingCache is valid and caches nothing.
type RankingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRankingCache creates a Redis ranking cache. Prefix may be empty.
func NewRankingCache(client *redis.Client, prefix string, ttl time.Duration) *RankingCache {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = "restaurants:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RankingCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RankingCache) key(v Variant) string {
	return c.prefix + string(v)
}

func (c *RankingCache) genKey() string {
	return c.prefix + "gen"
}

// Generation returns the invalidation counter. Read it before loading a
// ranking from the store and hand it to Set.
func (c *RankingCache) Generation(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	n, err := c.client.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Get returns the cached ranking. ok is false on a miss.
func (c *RankingCache) Get(ctx context.Context, v Variant) (ranked []restaurant.RankedRestaurant, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	b, err := c.client.Get(ctx, c.key(v)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RankingCache.WithLabelValues(string(v), "miss").Inc()
			return nil, false, nil
		}
		return nil, false, err
	}
	var docs []schema.RankingDocument
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, false, err
	}
	out := make([]restaurant.RankedRestaurant, 0, len(docs))
	for _, d := range docs {
		rr, found, err := schema.ToRanked(d)
		if err != nil {
			// a stale entry written before a cuisine table change; treat as a miss
			if err := c.client.Del(ctx, c.key(v)).Err(); err != nil {
				return nil, false, fmt.Errorf("drop stale ranking %s: %w", v, err)
			}
			metrics.RankingCache.WithLabelValues(string(v), "miss").Inc()
			return nil, false, nil
		}
		if found {
			out = append(out, rr)
		}
	}
	metrics.RankingCache.WithLabelValues(string(v), "hit").Inc()
	return out, true, nil
}

// Set stores a ranking loaded under generation gen. When an invalidation
// happened in between nothing is written and stored is false.
func (c *RankingCache) Set(ctx context.Context, v Variant, ranked []restaurant.RankedRestaurant, gen int64) (stored bool, err error) {
	if c == nil {
		return false, nil
	}
	docs := make([]schema.RankingDocument, 0, len(ranked))
	for _, rr := range ranked {
		d, err := schema.FromRanked(rr)
		if err != nil {
			return false, err
		}
		docs = append(docs, d)
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return false, err
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, c.genKey()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key(v), b, c.ttl)
			return nil
		})
		return err
	}, c.genKey())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		metrics.RankingCache.WithLabelValues(string(v), "stale").Inc()
		return false, nil
	default:
		return false, err
	}
}

// Invalidate bumps the generation and drops both cached rankings.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.genKey())
		p.Del(ctx, c.key(Top3), c.key(Top3Lookup))
		return nil
	})
	return err
}
