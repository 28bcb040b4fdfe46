package cachemanager

import (
	"errors"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/linfeng101/DataBase-Bustub/define"
	"github.com/linfeng101/DataBase-Bustub/extendiblehashtable"
	"github.com/linfeng101/DataBase-Bustub/lruk"
)

// ErrNoFreeFrame reports a Put against a cache whose frames are all pinned.
var ErrNoFreeFrame = errors.New("no free frame: all frames are pinned")

// Stats counts cache traffic since construction.
type Stats struct {
	Hits      int64
	Misses    int64
	Loads     int64
	Evictions int64
}

// frame is one slot of the value table.
type frame[K comparable, V any] struct {
	key      K
	value    V
	pinCount define.SizeT
}

// CacheManager is a fixed-capacity cache over numFrames value slots. Keys
// are routed to frames through an extendible hash table; when no frame is
// free, the LRU-K replacer picks the victim among unpinned frames. Pinned
// frames are never evicted.
type CacheManager[K comparable, V any] struct {
	mu         sync.Mutex
	capacity   define.SizeT
	table      *extendiblehashtable.ExtendibleHashTable[K, define.FrameIdT]
	replacer   *lruk.LRUKReplacer
	freeFrames *bitset.BitSet // set bit = frame unoccupied
	frames     []frame[K, V]
	stats      Stats
}

// New creates a cache manager with numFrames slots, LRU-k history depth k,
// and hash table buckets of bucketSize entries.
func New[K comparable, V any](bucketSize, numFrames, k define.SizeT, hasher func(K) uint64) *CacheManager[K, V] {
	free := bitset.New(uint(numFrames))
	for i := uint(0); i < uint(numFrames); i++ {
		free.Set(i)
	}
	return &CacheManager[K, V]{
		capacity:   numFrames,
		table:      extendiblehashtable.New[K, define.FrameIdT](bucketSize, hasher),
		replacer:   lruk.New(numFrames, k),
		freeFrames: free,
		frames:     make([]frame[K, V], numFrames),
	}
}

// Put upserts a pair. A new key takes a free frame, or the replacer's
// victim when none is free. Returns ErrNoFreeFrame if every frame is
// pinned. A freshly inserted entry starts unpinned.
func (c *CacheManager[K, V]) Put(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if frameId, ok := c.table.Find(key); ok {
		c.frames[frameId].value = value
		_ = c.replacer.RecordAccess(frameId)
		return nil
	}

	frameId, err := c.allocateFrame()
	if err != nil {
		return err
	}

	c.frames[frameId] = frame[K, V]{key: key, value: value}
	c.table.Insert(key, frameId)
	_ = c.replacer.RecordAccess(frameId)
	_ = c.replacer.SetEvictable(frameId, true)
	return nil
}

// Get returns the cached value for key and records the access.
func (c *CacheManager[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result. The loader runs without the cache lock held; a loader
// error propagates and caches nothing.
func (c *CacheManager[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	c.mu.Lock()
	value, ok := c.get(key)
	c.mu.Unlock()
	if ok {
		return value, nil
	}

	value, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.stats.Loads++
	c.mu.Unlock()
	if err := c.Put(key, value); err != nil {
		var zero V
		return zero, err
	}
	return value, nil
}

// Pin marks the key's frame non-evictable until a matching Unpin. Reports
// whether the key is cached.
func (c *CacheManager[K, V]) Pin(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	frameId, ok := c.table.Find(key)
	if !ok {
		return false
	}
	c.frames[frameId].pinCount++
	if c.frames[frameId].pinCount == 1 {
		_ = c.replacer.SetEvictable(frameId, false)
	}
	return true
}

// Unpin drops one pin from the key's frame; the frame becomes evictable
// again when its pin count reaches zero. Reports whether a pin was dropped.
func (c *CacheManager[K, V]) Unpin(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	frameId, ok := c.table.Find(key)
	if !ok || c.frames[frameId].pinCount == 0 {
		return false
	}
	c.frames[frameId].pinCount--
	if c.frames[frameId].pinCount == 0 {
		_ = c.replacer.SetEvictable(frameId, true)
	}
	return true
}

// Remove drops an unpinned entry and frees its frame. Reports whether the
// entry was removed; a pinned or absent key is left untouched.
func (c *CacheManager[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	frameId, ok := c.table.Find(key)
	if !ok || c.frames[frameId].pinCount > 0 {
		return false
	}
	_ = c.replacer.Remove(frameId)
	c.table.Remove(key)
	c.frames[frameId] = frame[K, V]{}
	c.freeFrames.Set(uint(frameId))
	return true
}

// Len returns the number of occupied frames.
func (c *CacheManager[K, V]) Len() define.SizeT {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity - define.SizeT(c.freeFrames.Count())
}

// Capacity returns the frame count fixed at construction.
func (c *CacheManager[K, V]) Capacity() define.SizeT {
	return c.capacity
}

// Stats returns a snapshot of the traffic counters.
func (c *CacheManager[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// internal

func (c *CacheManager[K, V]) get(key K) (V, bool) {
	frameId, ok := c.table.Find(key)
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	_ = c.replacer.RecordAccess(frameId)
	return c.frames[frameId].value, true
}

// allocateFrame hands out a free frame, evicting the replacer's victim when
// none is left. The victim's mapping is dropped; its frame is reused
// directly.
func (c *CacheManager[K, V]) allocateFrame() (define.FrameIdT, error) {
	if i, ok := c.freeFrames.NextSet(0); ok {
		c.freeFrames.Clear(i)
		return define.FrameIdT(i), nil
	}

	victim, ok := c.replacer.Evict()
	if !ok {
		return 0, ErrNoFreeFrame
	}
	c.stats.Evictions++
	c.table.Remove(c.frames[victim].key)
	return victim, nil
}
