package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer names cache entries.
type Keyer interface {
	// ViewStateKey names the expansion state of one tree view. scope is
	// usually the snapshot source, such as a store path.
	ViewStateKey(scope string) string
}

// DefaultKeyer hashes its inputs so keys have a fixed length.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ViewStateKey implements Keyer.
func (DefaultKeyer) ViewStateKey(scope string) string {
	return hashKey("viewstate", scope)
}

// ScopedKeyer wraps a Keyer with a prefix for per-client isolation.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "client:kiosk-1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means the default scheme.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ViewStateKey implements Keyer.
func (k *ScopedKeyer) ViewStateKey(scope string) string {
	return k.prefix + k.inner.ViewStateKey(scope)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
