package extendiblehashtable

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linfeng101/DataBase-Bustub/define"
	"github.com/linfeng101/DataBase-Bustub/extendiblehashtable/bucket"
	"github.com/linfeng101/DataBase-Bustub/helper"
)

// identityHasher routes an int key by its own value, so tests control
// exactly which directory slot a key lands in.
func identityHasher(key int) uint64 {
	return uint64(key)
}

// checkInvariants verifies the directory structure: directory length is
// 2^globalDepth, every local depth is bounded by the global depth, the
// slots referencing one bucket share a common residue modulo 2^localDepth,
// and every stored key is routed back to its own bucket.
func checkInvariants[K comparable, V any](t *testing.T, e *ExtendibleHashTable[K, V]) {
	t.Helper()
	ast := assert.New(t)

	e.mu.RLock()
	defer e.mu.RUnlock()

	ast.Equal(1<<e.globalDepth, len(e.dir))

	slotsOf := make(map[*bucket.Bucket[K, V]][]uint64)
	for i, b := range e.dir {
		slotsOf[b] = append(slotsOf[b], uint64(i))
	}
	ast.Equal(int(e.numBuckets), len(slotsOf))

	for b, slots := range slotsOf {
		depth := b.GetDepth()
		ast.LessOrEqual(depth, e.globalDepth)
		ast.Equal(1<<(e.globalDepth-depth), len(slots))

		mask := uint64(1)<<depth - 1
		residue := slots[0] & mask
		for _, slot := range slots {
			ast.Equal(residue, slot&mask)
		}

		for item := b.GetItems().Front(); item != nil; item = item.Next() {
			entry := item.Value.(*bucket.Entry[K, V])
			ast.Same(b, e.dir[e.IndexOf(entry.GetKey())])
		}
	}
}

func TestSampleEHT(t *testing.T) {
	ast := assert.New(t)

	table := New[string, string](2, helper.StringHasher)
	table.Insert("1", "a")
	table.Insert("2", "b")
	table.Insert("3", "c")
	table.Insert("4", "d")
	table.Insert("5", "e")
	table.Insert("6", "f")
	table.Insert("7", "g")
	table.Insert("8", "h")
	table.Insert("9", "i")

	var result string
	var isFind bool
	result, _ = table.Find("9")
	ast.Equal("i", result)
	result, _ = table.Find("8")
	ast.Equal("h", result)
	result, _ = table.Find("2")
	ast.Equal("b", result)

	_, isFind = table.Find("10")
	ast.False(isFind)

	ast.True(table.Remove("8"))
	ast.True(table.Remove("4"))
	ast.True(table.Remove("1"))
	ast.False(table.Remove("20"))

	checkInvariants(t, table)
}

func TestSplitWithDirectoryDoubling(t *testing.T) {
	ast := assert.New(t)

	table := New[int, string](2, identityHasher)
	table.Insert(0, "a")
	table.Insert(4, "b")
	ast.Equal(define.SizeT(0), table.GetGlobalDepth())
	ast.Equal(define.SizeT(1), table.GetNumBuckets())

	// 0, 4 and 8 share their low two bits, so inserting 8 splits the
	// bucket three times before 4 peels off into its own bucket.
	table.Insert(8, "c")
	ast.Equal(define.SizeT(3), table.GetGlobalDepth())
	ast.Equal(define.SizeT(4), table.GetNumBuckets())

	for key, want := range map[int]string{0: "a", 4: "b", 8: "c"} {
		got, isFind := table.Find(key)
		ast.True(isFind)
		ast.Equal(want, got)
	}
	checkInvariants(t, table)
}

func TestRepeatedSplitAtSameSlot(t *testing.T) {
	ast := assert.New(t)

	table := New[int, int](2, identityHasher)
	keys := []int{0, 8, 16, 24, 32}
	for _, key := range keys {
		table.Insert(key, key*10)
	}

	for _, key := range keys {
		got, isFind := table.Find(key)
		ast.True(isFind)
		ast.Equal(key*10, got)
	}
	checkInvariants(t, table)
}

func TestUpdateOnFullBucket(t *testing.T) {
	ast := assert.New(t)

	table := New[int, string](2, identityHasher)
	table.Insert(1, "x")
	table.Insert(2, "y")

	// Updating a key present in a full bucket never splits.
	table.Insert(1, "z")
	ast.Equal(define.SizeT(1), table.GetNumBuckets())
	ast.Equal(define.SizeT(0), table.GetGlobalDepth())

	got, isFind := table.Find(1)
	ast.True(isFind)
	ast.Equal("z", got)
	checkInvariants(t, table)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ast := assert.New(t)

	table := New[string, int](4, helper.StringHasher)
	ast.False(table.Remove("missing"))

	table.Insert("present", 42)
	ast.True(table.Remove("present"))
	ast.False(table.Remove("present"))
	_, isFind := table.Find("present")
	ast.False(isFind)
}

func TestGrowthUnderStringKeys(t *testing.T) {
	ast := assert.New(t)

	table := New[string, int](2, helper.StringHasher)
	const n = 200
	for i := 0; i < n; i++ {
		table.Insert(strconv.Itoa(i), i)
	}
	for i := 0; i < n; i++ {
		got, isFind := table.Find(strconv.Itoa(i))
		ast.True(isFind)
		ast.Equal(i, got)
	}
	checkInvariants(t, table)
}

func TestConcurrentInsert(t *testing.T) {
	ast := assert.New(t)

	numRuns := 50
	numThreads := 3

	// Run concurrent test multiple times to guarantee correctness.
	for run := 0; run < numRuns; run++ {
		table := New[int, int](2, identityHasher)

		var wg sync.WaitGroup
		for tid := 0; tid < numThreads; tid++ {
			i := tid
			wg.Add(1)
			go func() {
				defer wg.Done()
				table.Insert(i, i)
			}()
		}
		wg.Wait()

		ast.Equal(define.SizeT(1), table.GetGlobalDepth())
		for tid := 0; tid < numThreads; tid++ {
			result, isFind := table.Find(tid)
			ast.True(isFind)
			ast.Equal(tid, result)
		}
		checkInvariants(t, table)
	}
}
