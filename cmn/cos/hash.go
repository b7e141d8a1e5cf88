package cos

import (
	"strconv"

	"github.com/OneOfOne/xxhash"
)

// HashString returns a stable 64-bit hash of s, used by store to name each
// command queue's sequence counter (store.Enqueue).
func HashString(s string) uint64 {
	return xxhash.ChecksumString64(s)
}

// CollectionKey builds the buntdb key for document aid within collection.
func CollectionKey(collection, aid string) string {
	return collection + "\x00" + aid
}

// CounterKey builds the buntdb key for a named atomic counter.
func CounterKey(name string) string {
	return "counter\x00" + name
}

func Uitoa(v uint64) string { return strconv.FormatUint(v, 10) }
