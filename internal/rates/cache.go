package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const cacheBucket = "rates"

// Cache is a bbolt-backed TTL decorator around a Source. Repeated
// conversions during a single meal should not hammer the free rate tier.
// There is no stale-on-error fallback: a cache miss plus a fetch failure is
// the source's error.
type Cache struct {
	db     *bbolt.DB
	source Source
	ttl    time.Duration
	now    func() time.Time
}

type cachedTable struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Rates     map[string]float64 `json:"rates"`
}

// NewCache opens (or creates) the cache database at path and wraps source.
func NewCache(path string, source Source, ttl time.Duration) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening rate cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cacheBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating rate cache bucket: %w", err)
	}

	return &Cache{db: db, source: source, ttl: ttl, now: time.Now}, nil
}

// Rates returns the cached table for base when it is still fresh, otherwise
// fetches from the wrapped source and stores the result.
func (c *Cache) Rates(ctx context.Context, base string) (map[string]float64, error) {
	key := []byte(strings.ToUpper(base))

	var cached *cachedTable
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(cacheBucket)).Get(key)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &cached)
	})
	if err != nil {
		// A corrupt cache entry is treated as a miss.
		slog.Warn("Unreadable rate cache entry", "base", base, "error", err)
		cached = nil
	}

	if cached != nil && c.now().Sub(cached.FetchedAt) < c.ttl {
		return cached.Rates, nil
	}

	table, err := c.source.Rates(ctx, base)
	if err != nil {
		return nil, err
	}

	entry := cachedTable{FetchedAt: c.now(), Rates: table}
	data, err := json.Marshal(entry)
	if err == nil {
		err = c.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket([]byte(cacheBucket)).Put(key, data)
		})
	}
	if err != nil {
		// Failing to cache is not failing to convert.
		slog.Warn("Failed to cache rates", "base", base, "error", err)
	}

	return table, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}
