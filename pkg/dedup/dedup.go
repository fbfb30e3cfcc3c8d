package dedup

import (
	"crypto/md5"
	"encoding/hex"
)

// Key derives a content fingerprint from the two required post fields.
// A collision means "already collected" within the current run.
func Key(author, body string) string {
	sum := md5.Sum([]byte(author + "|" + body))
	return hex.EncodeToString(sum[:])
}

// Index is a run-scoped set of content fingerprints used to suppress
// repeats across pagination passes. It is cleared between topics and
// never persisted: re-running the same topic later may re-collect posts.
type Index struct {
	seen map[string]struct{}
}

// NewIndex creates an empty dedup index
func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// Seen reports whether the key has been collected in this run
func (i *Index) Seen(key string) bool {
	_, ok := i.seen[key]
	return ok
}

// Insert records the key as collected
func (i *Index) Insert(key string) {
	i.seen[key] = struct{}{}
}

// Len returns the number of distinct keys collected
func (i *Index) Len() int {
	return len(i.seen)
}

// Reset clears the index for the next topic
func (i *Index) Reset() {
	i.seen = make(map[string]struct{})
}
