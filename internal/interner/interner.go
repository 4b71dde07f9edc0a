// Package interner implements the bijection between short content-addressed
// handles (Key) and arbitrary hashable values, described in spec.md §4.1.
//
// A Key is a cheap, fixed-size handle for a heterogeneous payload. The
// incremental engine in this module does not key its nodes by Key: it uses
// SourceKey values and DerivedID structs directly.
package interner

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Key is a content hash of an interned value together with a type
// discriminator, so that two values of different Go types that happen to
// serialize identically never collide.
type Key struct {
	hash uint64
	kind string
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%016x", k.kind, k.hash)
}

// Hashable is implemented by values that can be interned. CacheKey must be a
// comparable, deterministic serialization of the value suitable for hashing
// (e.g. produced by encoding/gob, a canonical string form, or a struct of
// only comparable fields). Two values that are Eq-equal must produce equal
// CacheKeys.
type Hashable interface {
	CacheKey() string
}

// Interner is a bijection between Keys and the values they were minted
// from. It is engine-owned: callers construct one explicitly rather than
// reaching for global mutable state (spec.md §9, "Global interner").
type Interner struct {
	mu     sync.RWMutex
	values map[Key]interface{}
}

// New creates an empty Interner.
func New() *Interner {
	return &Interner{values: make(map[Key]interface{})}
}

// Intern stores value (if not already present) and returns its Key. Intern
// is idempotent and deterministic: equal inputs, by CacheKey, yield equal
// Keys.
func (in *Interner) Intern(kind string, value Hashable) Key {
	k := keyFor(kind, value)

	in.mu.RLock()
	if existing, ok := in.values[k]; ok {
		in.mu.RUnlock()
		if !sameKind(existing, value) {
			panic(fmt.Sprintf("interner: hash collision under kind %q", kind))
		}
		return k
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.values[k]; !ok {
		in.values[k] = value
	}
	return k
}

// Lookup returns the value previously returned by Intern for k. It panics
// if k was never produced by this Interner, matching the "infallible for
// keys previously returned by intern" contract in spec.md §4.1.
func (in *Interner) Lookup(k Key) interface{} {
	in.mu.RLock()
	defer in.mu.RUnlock()
	v, ok := in.values[k]
	if !ok {
		panic(fmt.Sprintf("interner: lookup of unknown key %s", k))
	}
	return v
}

// Len returns the number of distinct interned values, mostly useful in
// tests asserting dedup behavior.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.values)
}

func keyFor(kind string, value Hashable) Key {
	h := xxhash.New()
	_, _ = h.WriteString(kind)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(value.CacheKey())
	return Key{hash: h.Sum64(), kind: kind}
}

// sameKind is the collision guard: on a hash match we still confirm the
// canonical form agrees, so that "equal keys imply equal values" holds even
// under an adversarial or merely unlucky xxhash collision.
func sameKind(existing interface{}, value Hashable) bool {
	e, ok := existing.(Hashable)
	if !ok {
		return false
	}
	return e.CacheKey() == value.CacheKey()
}
