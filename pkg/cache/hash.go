package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keyer builds cache keys for index data.
type Keyer interface {
	// TreeKey names the tree snapshot of repo at ref.
	TreeKey(repo, ref string) string
	// ContentKey names the contents of one blob.
	ContentKey(repo, sha string) string
}

// DefaultKeyer hashes key components so arbitrary repository URLs are safe.
type DefaultKeyer struct {
	prefix string
}

// NewDefaultKeyer returns a Keyer with no scope prefix.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// NewScopedKeyer returns a Keyer whose keys all start with prefix.
// Use it to share one Redis instance between unrelated installations.
func NewScopedKeyer(prefix string) *DefaultKeyer {
	return &DefaultKeyer{prefix: prefix}
}

// TreeKey implements Keyer.
func (k *DefaultKeyer) TreeKey(repo, ref string) string {
	return k.prefix + hashKey("tree", repo, ref)
}

// ContentKey implements Keyer.
func (k *DefaultKeyer) ContentKey(repo, sha string) string {
	return k.prefix + hashKey("blob", repo, sha)
}

var _ Keyer = (*DefaultKeyer)(nil)
