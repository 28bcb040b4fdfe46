package bucket

import (
	"container/list"

	"github.com/linfeng101/DataBase-Bustub/define"
)

// Bucket holds up to size entries with unique keys and tracks its local
// depth, which grows by one each time the bucket is split.
type Bucket[K comparable, V any] struct {
	size  define.SizeT
	depth define.SizeT
	list  *list.List
}

type Entry[K comparable, V any] struct {
	key   K
	value V
}

func NewBucket[K comparable, V any](size, depth define.SizeT) *Bucket[K, V] {
	return &Bucket[K, V]{
		size:  size,
		depth: depth,
		list:  list.New(),
	}
}

func (b *Bucket[K, V]) Find(key K) (value V, isFind bool) {
	for e := b.list.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*Entry[K, V])

		if entry.key == key {
			return entry.value, true
		}
	}
	var zero V
	return zero, false
}

func (b *Bucket[K, V]) Remove(key K) bool {
	for e := b.list.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*Entry[K, V])

		if entry.key == key {
			b.list.Remove(e)
			return true
		}
	}
	return false
}

// Insert upserts the pair. Updating an existing key always succeeds;
// a new key is rejected when the bucket is full.
func (b *Bucket[K, V]) Insert(key K, value V) bool {
	for e := b.list.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*Entry[K, V])
		if entry.key == key {
			entry.value = value
			return true
		}
	}

	if b.IsFull() {
		return false
	}
	b.list.PushBack(&Entry[K, V]{key: key, value: value})
	return true
}

func (b *Bucket[K, V]) IsFull() bool { return b.size == define.SizeT(b.list.Len()) }

func (b *Bucket[K, V]) GetDepth() define.SizeT { return b.depth }

func (b *Bucket[K, V]) IncrementDepth() { b.depth++ }

func (b *Bucket[K, V]) GetItems() *list.List { return b.list }

// == Entry ==

func (e *Entry[K, V]) GetKey() K {
	return e.key
}

func (e *Entry[K, V]) GetValue() V {
	return e.value
}
