package lookup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"listingmatch/internal/marketplace"
	"listingmatch/internal/observability"
)

// DefaultCacheTTL is how long a page's lookup result is reused.
const DefaultCacheTTL = 24 * time.Hour

// Cache stores lookup results keyed by request.
type Cache interface {
	Get(ctx context.Context, key string) (map[string]string, bool)
	Set(ctx context.Context, key string, images map[string]string, ttl time.Duration)
}

// CacheKey identifies one exact request: the ASIN list in request order and
// the marketplace.
func CacheKey(asins []string, mp string) string {
	h := sha256.New()
	h.Write([]byte(marketplace.Normalize(mp)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(asins, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// Cached memoizes another Lookup. Results containing failures are not stored
// so a transient error is retried on the next page view.
type Cached struct {
	Next  Lookup
	Cache Cache
	TTL   time.Duration
}

func NewCached(next Lookup, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{Next: next, Cache: cache, TTL: ttl}
}

func (c *Cached) Available() bool { return c.Next.Available() }

func (c *Cached) Source() string { return c.Next.Source() }

func (c *Cached) FirstImages(ctx context.Context, asins []string, mp string) Result {
	asins = CleanASINs(asins)
	if len(asins) == 0 {
		return emptyResult(nil)
	}

	key := CacheKey(asins, mp)
	if images, ok := c.Cache.Get(ctx, key); ok {
		observability.LookupCacheHits.Inc()
		out := emptyResult(asins)
		for _, a := range asins {
			out.Images[a] = images[a]
		}
		return out
	}

	res := c.Next.FirstImages(ctx, asins, mp)
	if !res.HasFailures() {
		c.Cache.Set(ctx, key, res.Images, c.TTL)
	}
	return res
}

type memoryEntry struct {
	images  map[string]string
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e.images, true
}

func (m *MemoryCache) Set(_ context.Context, key string, images map[string]string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	cp := make(map[string]string, len(images))
	for k, v := range images {
		cp[k] = v
	}
	m.entries[key] = memoryEntry{images: cp, expires: now.Add(ttl)}
}

// RedisCache shares lookup results between processes.
type RedisCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client, Prefix: "lookup:"}
}

func (r *RedisCache) Get(ctx context.Context, key string) (map[string]string, bool) {
	val, err := r.Client.Get(ctx, r.Prefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Lookup] cache read failed: %v", err)
		}
		return nil, false
	}

	var images map[string]string
	if err := json.Unmarshal([]byte(val), &images); err != nil {
		return nil, false
	}
	return images, true
}

func (r *RedisCache) Set(ctx context.Context, key string, images map[string]string, ttl time.Duration) {
	b, err := json.Marshal(images)
	if err != nil {
		return
	}
	if err := r.Client.Set(ctx, r.Prefix+key, b, ttl).Err(); err != nil {
		log.Printf("[Lookup] cache write failed: %v", err)
	}
}
