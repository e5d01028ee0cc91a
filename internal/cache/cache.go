package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// RequestKey derives a stable key for a JSON-serializable request. The
// request is canonicalized (RFC 8785) first so that field order and number
// formatting never split identical requests across keys.
func RequestKey(namespace string, request any) (string, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal cache request: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize cache request: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return "pws:v1:" + namespace + ":" + hex.EncodeToString(hash[:]), nil
}

// Remember returns the cached value for key, or computes, stores and returns
// it. Failed computations are not cached.
func Remember[T any](c Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if raw, ok := c.Get(key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		_ = c.Delete(key)
	}

	value, err := compute()
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		_ = c.Set(key, raw, ttl)
	}
	return value, nil
}

// Noop is a Cache that stores nothing
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error { return nil }
