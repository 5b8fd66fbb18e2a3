package snapshot

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key or record does not exist.
var ErrNotFound = errors.New("snapshot: not found")

// Separator joins key segments.
const Separator = ':'

// Key is a hierarchical path such as {"snap", "rec", "0190..."}. Segments
// must not contain Separator.
type Key []string

// String returns the encoded key.
func (k Key) String() string {
	return strings.Join(k, string(Separator))
}

// Append returns a new key with segs appended. k is not modified.
func (k Key) Append(segs ...string) Key {
	out := make(Key, 0, len(k)+len(segs))
	out = append(out, k...)
	return append(out, segs...)
}

func (k Key) encode() []byte {
	return []byte(k.String())
}

// scanPrefix is the byte prefix matching every key strictly below k, so
// that "a:b" does not match "a:bc". An empty key matches everything.
func (k Key) scanPrefix() []byte {
	if len(k) == 0 {
		return nil
	}
	return append(k.encode(), Separator)
}

func decodeKey(b []byte) Key {
	return Key(strings.Split(string(b), string(Separator)))
}

// Entry is a key-value pair.
type Entry struct {
	Key   Key
	Value []byte
}

// Backend is the key-value engine underneath a Snapshot.
type Backend interface {
	// Get returns ErrNotFound if key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Apply atomically writes sets and then removes deletes. Deleting an
	// absent key is not an error.
	Apply(ctx context.Context, sets []Entry, deletes []Key) error

	// Scan iterates over all entries below prefix in lexicographic key
	// order.
	Scan(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	Close() error
}
