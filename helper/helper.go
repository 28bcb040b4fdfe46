package helper

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"

	"github.com/linfeng101/DataBase-Bustub/define"
)

// Hash64 returns the xxHash digest of key.
func Hash64(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// Murmur64 returns the MurmurHash3 digest of key.
func Murmur64(key []byte) uint64 {
	return murmur3.Sum64(key)
}

// StringHasher hashes a string key with xxHash.
func StringHasher(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Int64Hasher varint-encodes the key and hashes it with xxHash.
func Int64Hasher(key int64) uint64 {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, key)
	return Hash64(buf[:n])
}

// PageIdHasher hashes a page id for use as a hash table key.
func PageIdHasher(key define.PageIdT) uint64 {
	return Int64Hasher(int64(key))
}
