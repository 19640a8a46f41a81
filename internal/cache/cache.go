package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is the interface for short-lived byte caches used on the
// fetch path (extracted article content, recently seen article ids).
// Durable history lives in the history store, not here.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Key derives a stable cache key from its parts.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "newspulse:v1:" + hex.EncodeToString(hash[:])
}
