// ABOUTME: Access code allow-list supporting plain codes and bcrypt hashes.
// ABOUTME: Provides short fingerprints so codes can be correlated in logs without being written.

package access

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MatchTTL is how long a successful bcrypt match is remembered.
	MatchTTL = 10 * time.Minute

	// MatchCacheSize bounds the number of remembered matches.
	MatchCacheSize = 1024

	fingerprintLen = 12
)

// AllowList checks access codes against configured entries. It is safe for
// concurrent use.
type AllowList struct {
	plain  [][]byte
	hashes [][]byte
	recent *matchCache
}

// NewAllowList builds an allow-list from config entries. Blank entries are ignored.
func NewAllowList(entries []string) *AllowList {
	a := &AllowList{recent: newMatchCache(MatchTTL, MatchCacheSize)}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch {
		case e == "":
		case IsHash(e):
			a.hashes = append(a.hashes, []byte(e))
		default:
			a.plain = append(a.plain, []byte(e))
		}
	}
	return a
}

// Allowed reports whether code matches any entry.
func (a *AllowList) Allowed(code string) bool {
	if code == "" {
		return false
	}
	candidate := []byte(code)

	found := false
	for _, p := range a.plain {
		if subtle.ConstantTimeCompare(p, candidate) == 1 {
			found = true
		}
	}
	if found || len(a.hashes) == 0 {
		return found
	}

	key := matchKey(code)
	if a.recent.seen(key) {
		return true
	}
	for _, h := range a.hashes {
		if bcrypt.CompareHashAndPassword(h, candidate) == nil {
			a.recent.mark(key)
			return true
		}
	}
	return false
}

// Len returns the number of configured entries.
func (a *AllowList) Len() int {
	return len(a.plain) + len(a.hashes)
}

// Close stops background cleanup of remembered matches.
func (a *AllowList) Close() {
	a.recent.close()
}

// IsHash reports whether s looks like a bcrypt hash.
func IsHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Hash returns a bcrypt hash of code suitable for the access.codes config list.
func Hash(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Fingerprint returns a short SHA-256 hex digest of code for log correlation.
// It is too short to identify a code and must not gate access.
func Fingerprint(code string) string {
	return matchKey(code)[:fingerprintLen]
}

// matchKey is the full SHA-256 hex digest under which bcrypt matches are remembered.
func matchKey(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
