package vello

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Storage is a flat string key/value store in the shape of web storage.
// Implementations back the session and durable cache kinds; callers may
// supply their own (e.g. bridging to an external store).
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string) error
	RemoveItem(key string) error
	// Key returns the i-th stored key for enumeration, in stable order.
	Key(i int) (string, bool)
	Length() int
}

// MemoryStorage is an in-process Storage with insertion-ordered enumeration.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
	order []string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *MemoryStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		s.order = append(s.order, key)
	}
	s.items[key] = value
	return nil
}

func (s *MemoryStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return nil
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStorage) Key(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.order) {
		return "", false
	}
	return s.order[i], true
}

func (s *MemoryStorage) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// FileStorage is a durable Storage keeping one file per item under a
// directory. Keys are base64url encoded into file names.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

const fileStorageExt = ".entry"

// NewFileStorage creates the directory if needed and returns a FileStorage
// over it.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(key string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(key)) + fileStorageExt
	return filepath.Join(s.dir, name)
}

func (s *FileStorage) GetItem(key string) (string, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (s *FileStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.path(key), []byte(value), 0o600)
}

func (s *FileStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStorage) keys() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, fileStorageExt) {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileStorageExt))
		if err != nil {
			continue
		}
		keys = append(keys, string(decoded))
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStorage) Key(i int) (string, bool) {
	keys := s.keys()
	if i < 0 || i >= len(keys) {
		return "", false
	}
	return keys[i], true
}

func (s *FileStorage) Length() int {
	return len(s.keys())
}

// storagePrefix namespaces cache items inside a Storage so bulk clear never
// touches unrelated items in a shared store.
const storagePrefix = "vello:cache:"

// storageCache adapts a Storage into the Cache contract with JSON-serialized
// entries. Storage failures are logged and swallowed; they never surface as
// request failures.
type storageCache struct {
	storage Storage
	logger  Logger
}

func newStorageCache(storage Storage, logger Logger) *storageCache {
	return &storageCache{storage: storage, logger: logger}
}

func (c *storageCache) warn(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, kv...)
	}
}

func (c *storageCache) Get(key string) (*CacheEntry, bool) {
	raw, ok := c.storage.GetItem(storagePrefix + key)
	if !ok {
		return nil, false
	}
	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.warn("cache entry decode failed", "key", key, "error", err)
		return nil, false
	}
	if entry.Expired() {
		return nil, false
	}
	return &entry, true
}

func (c *storageCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	entry.TTL = ttl
	raw, err := json.Marshal(entry)
	if err != nil {
		c.warn("cache entry encode failed", "key", key, "error", err)
		return
	}
	if err := c.storage.SetItem(storagePrefix+key, string(raw)); err != nil {
		c.warn("cache write failed", "key", key, "error", err)
	}
}

func (c *storageCache) Delete(key string) {
	if err := c.storage.RemoveItem(storagePrefix + key); err != nil {
		c.warn("cache delete failed", "key", key, "error", err)
	}
}

// Clear sweeps every item under the cache namespace, leaving foreign items
// in a shared store untouched.
func (c *storageCache) Clear() {
	for _, key := range c.namespacedKeys() {
		if err := c.storage.RemoveItem(storagePrefix + key); err != nil {
			c.warn("cache clear failed", "key", key, "error", err)
		}
	}
}

func (c *storageCache) Keys() []string {
	var live []string
	for _, key := range c.namespacedKeys() {
		if _, ok := c.Get(key); ok {
			live = append(live, key)
		}
	}
	return live
}

func (c *storageCache) namespacedKeys() []string {
	// Snapshot first: removal during enumeration would shift indices.
	var keys []string
	for i := 0; i < c.storage.Length(); i++ {
		k, ok := c.storage.Key(i)
		if !ok {
			break
		}
		if strings.HasPrefix(k, storagePrefix) {
			keys = append(keys, strings.TrimPrefix(k, storagePrefix))
		}
	}
	return keys
}
