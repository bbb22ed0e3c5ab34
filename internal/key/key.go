package key

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/contra-app/fetchcache/internal/shared/cachedtime"
	"github.com/zeebo/xxh3"
)

// degradedBucket is the width of the time bucket used for fallback keys when
// arguments cannot be canonicalized. Keys derived inside the same bucket
// collide on purpose: the bucket only has to keep fallback file names from
// piling up unboundedly, lookups never read them.
const degradedBucket = time.Minute

// Key identifies one memoized call: the fully-qualified operation name plus a
// canonical serialization of its arguments, digested by xxh3.
type Key struct {
	v  uint64
	hi uint64
	lo uint64

	degraded bool
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

// Derive builds the key for op called with args. Args must be composed of
// strings, numbers, booleans, nil and nested sequences/string-keyed mappings
// thereof; anything else degrades the key (see Degraded).
func Derive(op string, args any) Key {
	canonical, err := Canonicalize(args)
	if err != nil {
		return buildKey(op, degradedArgs(), true)
	}
	return buildKey(op, canonical, false)
}

// Value returns the 64-bit digest, usable as a map key.
func (k Key) Value() uint64 {
	return k.v
}

// Digest returns the 128-bit digest as 32 hex characters, safe for file names.
func (k Key) Digest() string {
	return fmt.Sprintf("%016x%016x", k.hi, k.lo)
}

// Degraded reports that argument canonicalization failed and the key was
// derived from a coarse time bucket instead. A degraded key must be treated
// as an unconditional cache miss.
func (k Key) Degraded() bool {
	return k.degraded
}

func (k Key) IsTheSame(other Key) bool {
	return k.v == other.v && k.hi == other.hi && k.lo == other.lo
}

func buildKey(op string, canonical []byte, degraded bool) Key {
	// acquire reusable hasher
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	_, _ = hasher.WriteString(op)
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write(canonical)

	u128 := hasher.Sum128()
	k := Key{
		v:        hasher.Sum64(),
		hi:       u128.Hi,
		lo:       u128.Lo,
		degraded: degraded,
	}

	hasherPool.Put(hasher)

	return k
}

func degradedArgs() []byte {
	bucket := cachedtime.Now().Unix() / int64(degradedBucket/time.Second)
	return strconv.AppendInt([]byte("degraded:"), bucket, 10)
}
