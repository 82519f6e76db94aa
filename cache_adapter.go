package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// lookupOutcome distinguishes a cached value, a genuine miss, and an
// unreachable store. The pipeline treats miss and unavailable the same
// way; only the log line differs.
type lookupOutcome int

const (
	lookupHit lookupOutcome = iota
	lookupMiss
	lookupUnavailable
)

// cacheAdapter is the best-effort read-through layer. Every store error
// is downgraded to a warning; nothing here can fail a request.
type cacheAdapter struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

func newCacheAdapter(store Store, ttl time.Duration, log *slog.Logger) *cacheAdapter {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &cacheAdapter{store: store, ttl: ttl, log: log}
}

func (c *cacheAdapter) lookup(ctx context.Context, key string) (any, lookupOutcome) {
	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed",
			slog.String("key", key),
			slog.String("driver", string(c.store.Driver())),
			slog.String("error", err.Error()))
		return nil, lookupUnavailable
	}
	if !ok {
		return nil, lookupMiss
	}
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		c.log.Warn("cache entry undecodable, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, lookupMiss
	}
	return value, lookupHit
}

func (c *cacheAdapter) storeResult(ctx context.Context, key string, data any) {
	body, err := json.Marshal(coerceForCache(data))
	if err != nil {
		c.log.Warn("cache value not serializable",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	if err := c.store.Set(ctx, key, body, c.ttl); err != nil {
		c.log.Warn("cache write failed",
			slog.String("key", key),
			slog.String("driver", string(c.store.Driver())),
			slog.String("error", err.Error()))
		return
	}
	c.log.Debug("result cached", slog.String("key", key))
}

// cacheableResult reports whether a backend result should populate the
// cache. Empty row sets and empty documents are not cached, so a later
// call re-reads the backend instead of being pinned to an empty answer
// for the TTL.
func cacheableResult(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case []map[string]any:
		return len(value) > 0
	case []any:
		return len(value) > 0
	case map[string]any:
		return len(value) > 0
	}
	return true
}

// coerceForCache walks a result and replaces values JSON cannot encode
// with their string representation, so backend-native types (document
// identifiers, timestamps) survive the round trip as text.
func coerceForCache(v any) any {
	switch value := v.(type) {
	case nil, bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return value
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = coerceForCache(item)
		}
		return out
	case []map[string]any:
		out := make([]any, 0, len(value))
		for _, item := range value {
			out = append(out, coerceForCache(item))
		}
		return out
	case []any:
		out := make([]any, 0, len(value))
		for _, item := range value {
			out = append(out, coerceForCache(item))
		}
		return out
	default:
		if _, err := json.Marshal(value); err == nil {
			return value
		}
		return fmt.Sprint(value)
	}
}
