package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/util"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Namespaces keep keys of different payloads apart
const (
	NamespacePage       = "page"
	NamespaceFactCheck  = "factcheck"
	NamespaceEmbeddings = "embeddings"
)

// CacheKey generates a namespaced cache key from an arbitrary identifier
func CacheKey(namespace, id string) string {
	hash := sha256.Sum256([]byte(id))
	return "verisense:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// GetJSON decodes a cached JSON value into out
func GetJSON(c Cache, key string, out interface{}) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.Delete(key)
		return false
	}
	return true
}

// SetJSON stores v as JSON
func SetJSON(c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, data, ttl)
}

// New builds the configured cache backend. A disabled cache returns NoopCache.
// An unreachable Valkey falls back to the in-memory cache.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NoopCache{}
	}

	dir := util.ExpandPath(cfg.Dir)

	switch cfg.Backend {
	case "memory":
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	case "disk":
		return NewDiskCache(dir, cfg.TTL)
	case "valkey":
		vc, err := NewValkeyCache(cfg.ValkeyAddress, cfg.ValkeyPassword, cfg.TTL)
		if err != nil {
			slog.Warn("[Cache] Valkey unavailable, using memory cache", slog.String("error", err.Error()))
			return NewMemoryCache(cfg.TTL, 10*time.Minute)
		}
		return vc
	default:
		return NewLayeredCache(time.Hour, dir, cfg.TTL)
	}
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(string) ([]byte, bool)                { return nil, false }
func (NoopCache) Set(string, []byte, time.Duration) error { return nil }
func (NoopCache) Delete(string) error                      { return nil }
func (NoopCache) Clear() error                             { return nil }
