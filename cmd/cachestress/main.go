package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/linfeng101/DataBase-Bustub/cachemanager"
	"github.com/linfeng101/DataBase-Bustub/define"
	"github.com/linfeng101/DataBase-Bustub/helper"
)

var maxDelay int64 = 3

// Get delay jitter.
func jitter() time.Duration {
	return time.Duration(rand.Int63n(maxDelay)+1) * time.Millisecond
}

// client hammers the cache with its own uuid-prefixed key space, then
// verifies that every key still cached reads back its last written value.
func client(cache *cachemanager.CacheManager[string, string], numKeys, numOps int, readPct int) error {
	prefix := uuid.New().String()
	lastWritten := make(map[string]string)

	for op := 0; op < numOps; op++ {
		time.Sleep(jitter())
		key := fmt.Sprintf("%s-%d", prefix, rand.Intn(numKeys))

		if rand.Intn(100) < readPct {
			value, ok := cache.Get(key)
			if ok && value != lastWritten[key] {
				return fmt.Errorf("key %s: got %q, last wrote %q", key, value, lastWritten[key])
			}
			continue
		}

		value := fmt.Sprintf("%s#%d", key, op)
		if err := cache.Put(key, value); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		lastWritten[key] = value
	}

	for key, want := range lastWritten {
		if value, ok := cache.Get(key); ok && value != want {
			return fmt.Errorf("key %s: got %q, want %q", key, value, want)
		}
	}
	return nil
}

func main() {
	var framesFlag = flag.Int("frames", 256, "number of cache frames")
	var kFlag = flag.Int("k", 2, "history depth of the lru-k replacer")
	var clientsFlag = flag.Int("clients", 4, "number of concurrent clients")
	var keysFlag = flag.Int("keys", 64, "keys per client")
	var opsFlag = flag.Int("ops", 1000, "operations per client")
	var readPctFlag = flag.Int("readpct", 70, "percentage of reads in the workload")
	flag.Parse()

	cache := cachemanager.New[string, string](
		8,
		define.SizeT(*framesFlag),
		define.SizeT(*kFlag),
		helper.StringHasher,
	)

	start := time.Now()
	var eg errgroup.Group
	for i := 0; i < *clientsFlag; i++ {
		eg.Go(func() error {
			return client(cache, *keysFlag, *opsFlag, *readPctFlag)
		})
	}
	if err := eg.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, "stress run failed:", err)
		os.Exit(1)
	}

	stats := cache.Stats()
	fmt.Printf("ok: %d clients x %d ops in %v\n", *clientsFlag, *opsFlag, time.Since(start))
	fmt.Printf("cached %d/%d frames, hits %d, misses %d, loads %d, evictions %d\n",
		cache.Len(), cache.Capacity(), stats.Hits, stats.Misses, stats.Loads, stats.Evictions)
}
