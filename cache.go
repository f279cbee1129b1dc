package vello

import (
	"encoding/base64"
	"hash/fnv"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// cacheKeyPrefix namespaces every derived cache key, making entries in
// shared storage backends enumerable and sweepable in bulk.
const cacheKeyPrefix = "vello:"

// StorageKind selects the storage backend a cache policy targets.
type StorageKind int

const (
	// StorageMemory keeps entries in a process-local map scoped to the
	// client instance. Default.
	StorageMemory StorageKind = iota
	// StorageSession keeps entries in a shared in-process Storage that
	// lives for the client's lifetime, mirroring session-scoped stores.
	StorageSession
	// StorageDurable persists entries through a file-backed Storage that
	// survives process restarts.
	StorageDurable
)

// CachePolicy decides cache eligibility, key derivation and storage for a
// request. Backend selection is per-policy: different requests under one
// client may target different backends.
type CachePolicy struct {
	Enabled bool
	// TTL bounds entry freshness. Expiry is lazy: stale entries read as
	// misses but are not swept eagerly.
	TTL     time.Duration
	Storage StorageKind
	// Backend, when set, overrides Storage with a caller-supplied cache.
	Backend Cache
	// Key, when set, is used verbatim for every request under this policy.
	Key string
	// KeyFunc, when set, derives the key from the URL and resolved config.
	KeyFunc CacheKeyFunc
	// Methods are explicitly cache-eligible regardless of other rules.
	Methods []string
	// SafePaths are substrings marking POST paths safe to cache.
	SafePaths []string
	// AllowAllMethods makes every method eligible unconditionally.
	AllowAllMethods bool
}

// readPathPattern matches conventional read-oriented path segments that make
// a POST cache-eligible. Known to be a broad heuristic.
var readPathPattern = regexp.MustCompile(`(^|/)(search|query|filter|list|find|get)(/|$)`)

// eligible applies the eligibility rules in order, first match wins:
// explicit method list, GET/HEAD, allow-all flag, then the POST heuristics
// (safe path substring, query-style content type, read-oriented segment).
func (p CachePolicy) eligible(method, path, contentType string) bool {
	m := strings.ToUpper(method)
	for _, allowed := range p.Methods {
		if strings.EqualFold(allowed, m) {
			return true
		}
	}
	if m == http.MethodGet || m == http.MethodHead {
		return true
	}
	if p.AllowAllMethods {
		return true
	}
	if m == http.MethodPost {
		for _, sp := range p.SafePaths {
			if sp != "" && strings.Contains(path, sp) {
				return true
			}
		}
		if strings.Contains(strings.ToLower(contentType), "graphql") {
			return true
		}
		if readPathPattern.MatchString(path) {
			return true
		}
	}
	return false
}

// cacheKey derives the key for a resolved request: fixed key, then key
// function, then the deterministic method|URL|headers|body encoding under
// the namespace prefix.
func (p CachePolicy) cacheKey(cfg *RequestConfig) string {
	if p.Key != "" {
		return p.Key
	}
	if p.KeyFunc != nil {
		return p.KeyFunc(cfg.URL, cfg)
	}
	return defaultCacheKey(cfg)
}

func defaultCacheKey(cfg *RequestConfig) string {
	names := make([]string, 0, len(cfg.Headers))
	for k := range cfg.Headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(cfg.Method)
	b.WriteByte('|')
	b.WriteString(cfg.URL)
	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(cfg.Headers[k])
	}
	b.WriteByte('|')
	b.Write(cfg.bodyBytes)

	return cacheKeyPrefix + base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}

// CacheEntry is a stored response. Entries are never mutated in place, only
// replaced or deleted.
type CacheEntry struct {
	Body       []byte        `json:"body"`
	StatusCode int           `json:"statusCode"`
	StatusText string        `json:"statusText"`
	Header     http.Header   `json:"header"`
	Timestamp  time.Time     `json:"timestamp"`
	TTL        time.Duration `json:"ttl"`
}

// Expired reports whether the entry has outlived its TTL.
func (e *CacheEntry) Expired() bool {
	return time.Since(e.Timestamp) >= e.TTL
}

// Cache is the pluggable store contract. Implementations must tolerate
// concurrent use; last write wins on key collisions. Set receives the TTL so
// external stores can apply native expiry.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry, ttl time.Duration)
	Delete(key string)
	Clear()
	Keys() []string
}

// CacheStats is a point-in-time snapshot of a client's cache contents.
type CacheStats struct {
	Size int
	Keys []string
}

// InMemoryCache is the default backend: a sharded map scoped to the owning
// client's lifetime.
type InMemoryCache struct {
	shards []*cacheShard
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
}

const numCacheShards = 16

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	shards := make([]*cacheShard, numCacheShards)
	for i := range shards {
		shards[i] = &cacheShard{store: make(map[string]*CacheEntry)}
	}
	return &InMemoryCache{shards: shards}
}

func (c *InMemoryCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%numCacheShards]
}

// Get returns the live entry for key. Expired entries read as absent.
func (c *InMemoryCache) Get(key string) (*CacheEntry, bool) {
	s := c.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.store[key]
	if !ok || entry.Expired() {
		return nil, false
	}
	return entry, true
}

// Set stores an entry, stamping its TTL.
func (c *InMemoryCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	entry.TTL = ttl
	s := c.shard(key)
	s.mu.Lock()
	s.store[key] = entry
	s.mu.Unlock()
}

// Delete removes one entry.
func (c *InMemoryCache) Delete(key string) {
	s := c.shard(key)
	s.mu.Lock()
	delete(s.store, key)
	s.mu.Unlock()
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.store = make(map[string]*CacheEntry)
		s.mu.Unlock()
	}
}

// Keys lists the keys of all live entries.
func (c *InMemoryCache) Keys() []string {
	var keys []string
	for _, s := range c.shards {
		s.mu.RLock()
		for k, e := range s.store {
			if !e.Expired() {
				keys = append(keys, k)
			}
		}
		s.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

// entryFromResponse captures an envelope into a cache entry with a flattened
// copy of the response headers.
func entryFromResponse(resp *Response) *CacheEntry {
	return &CacheEntry{
		Body:       resp.RawBody,
		StatusCode: resp.StatusCode,
		StatusText: resp.StatusText,
		Header:     resp.Header.Clone(),
		Timestamp:  time.Now(),
	}
}

// responseFromEntry synthesizes an envelope from a cache hit, decoding the
// stored body per the request's response type and appending the cache
// marker to the status text.
func responseFromEntry(cfg *RequestConfig, entry *CacheEntry) (*Response, error) {
	data, err := parsePayload(cfg.ResponseType, entry.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		Data:       data,
		RawBody:    entry.Body,
		StatusCode: entry.StatusCode,
		StatusText: entry.StatusText + cachedStatusSuffix,
		Header:     entry.Header,
		Config:     cfg,
		Cached:     true,
	}, nil
}
