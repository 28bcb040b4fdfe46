package extendiblehashtable

import (
	"sync"

	"github.com/linfeng101/DataBase-Bustub/define"
	"github.com/linfeng101/DataBase-Bustub/extendiblehashtable/bucket"
)

// ExtendibleHashTable maps keys to values with extendible hashing: a
// directory of 2^globalDepth slots, each referencing a bucket whose local
// depth says how many low hash bits its keys share. Buckets split on
// overflow; the directory doubles when a splitting bucket is already at
// global depth.
type ExtendibleHashTable[K comparable, V any] struct {
	globalDepth define.SizeT
	bucketSize  define.SizeT
	numBuckets  define.SizeT
	mu          sync.RWMutex
	hasher      func(K) uint64
	dir         []*bucket.Bucket[K, V]
}

// New creates an extendible hash table. Each bucket holds up to bucketSize
// entries. hasher must be pure and deterministic and agree with == on K.
func New[K comparable, V any](bucketSize define.SizeT, hasher func(K) uint64) *ExtendibleHashTable[K, V] {
	dir := make([]*bucket.Bucket[K, V], 0)
	dir = append(dir, bucket.NewBucket[K, V](bucketSize, 0))
	return &ExtendibleHashTable[K, V]{
		globalDepth: 0,
		bucketSize:  bucketSize,
		numBuckets:  1,
		mu:          sync.RWMutex{},
		hasher:      hasher,
		dir:         dir,
	}
}

// IndexOf For the given key, return the entry index in the directory where the key hashes to.
func (e *ExtendibleHashTable[K, V]) IndexOf(key K) uint64 {
	mask := uint64(1<<e.globalDepth) - 1
	return e.hasher(key) & mask
}

// Find the value associated with the given key.
// Use IndexOf(key) to find the directory index the key hashes to.
func (e *ExtendibleHashTable[K, V]) Find(key K) (value V, isFind bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	index := e.IndexOf(key)
	targetBucket := e.dir[index]
	return targetBucket.Find(key)
}

// Remove Given the key, remove the corresponding key-value pair in the hash table.
func (e *ExtendibleHashTable[K, V]) Remove(key K) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	index := e.IndexOf(key)
	targetBucket := e.dir[index]
	return targetBucket.Remove(key)
}

// Insert the given key-value pair into the hash table.
// If a key already exists, the value should be updated.
// If the bucket is full and can't be inserted, do the following steps before retrying:
//  1. If the local depth of the bucket is equal to the global depth,
//     increment the global depth and double the size of the directory.
//  2. Increment the local depth of the bucket and allocate the split image.
//  3. Redistribute directory pointers & the kv pairs in the bucket.
func (e *ExtendibleHashTable[K, V]) Insert(key K, value V) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for !e.dir[e.IndexOf(key)].Insert(key, value) {
		// If the local depth of the bucket is equal to the global depth,
		// increment the global depth and double the size of the directory.
		if e.getLocalDepth(e.IndexOf(key)) == e.getGlobalDepth() {
			e.globalDepth++
			capacity := len(e.dir)
			for i := 0; i < capacity; i++ {
				e.dir = append(e.dir, e.dir[i])
			}
		}

		targetBucket := e.dir[e.IndexOf(key)]

		// Increment the local depth of the bucket and allocate its split
		// image one level deeper.
		targetBucket.IncrementDepth()
		newBucket := bucket.NewBucket[K, V](e.bucketSize, targetBucket.GetDepth())
		e.numBuckets++

		// Repoint the directory: of the slots referencing the old bucket,
		// those with the new depth bit set move to the split image. The
		// slots referencing either bucket keep a common residue modulo
		// 2^localDepth.
		highBit := uint64(1) << (targetBucket.GetDepth() - 1)
		for i := uint64(0); i < uint64(len(e.dir)); i++ {
			if e.dir[i] == targetBucket && i&highBit != 0 {
				e.dir[i] = newBucket
			}
		}

		// Move the entries the directory no longer routes to the old bucket.
		items := targetBucket.GetItems()
		for item := items.Front(); item != nil; {
			next := item.Next()
			entry := item.Value.(*bucket.Entry[K, V])
			if e.dir[e.IndexOf(entry.GetKey())] != targetBucket {
				newBucket.Insert(entry.GetKey(), entry.GetValue())
				items.Remove(item)
			}
			item = next
		}
	}
}

// GetGlobalDepth Get the global depth of the directory.
func (e *ExtendibleHashTable[K, V]) GetGlobalDepth() define.SizeT {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.getGlobalDepth()
}

// GetLocalDepth Get the local depth of the bucket that the given directory index points to.
func (e *ExtendibleHashTable[K, V]) GetLocalDepth(dirIndex uint64) define.SizeT {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.getLocalDepth(dirIndex)
}

// GetNumBuckets Get the number of buckets in the directory.
func (e *ExtendibleHashTable[K, V]) GetNumBuckets() define.SizeT {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.getNumBuckets()
}

// internal

func (e *ExtendibleHashTable[K, V]) getGlobalDepth() define.SizeT {
	return e.globalDepth
}

func (e *ExtendibleHashTable[K, V]) getLocalDepth(dirIndex uint64) define.SizeT {
	return e.dir[dirIndex].GetDepth()
}

func (e *ExtendibleHashTable[K, V]) getNumBuckets() define.SizeT {
	return e.numBuckets
}
