package lruk

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/linfeng101/DataBase-Bustub/define"
)

var (
	// ErrInvalidFrame reports a frame id outside [0, replacer capacity).
	ErrInvalidFrame = errors.New("frame id out of replacer range")
	// ErrRemoveNonEvictable reports an attempt to remove a pinned frame.
	ErrRemoveNonEvictable = errors.New("cannot remove a non-evictable frame")
)

// infDistance marks a frame with fewer than k recorded accesses.
const infDistance = define.SizeT(math.MaxUint64)

// frameRecord tracks one frame's access history. history holds the last k
// access timestamps, oldest first and strictly increasing. kDistance is the
// backward k-distance as of the frame's most recent access.
type frameRecord struct {
	history     []define.SizeT
	isEvictable bool
	kDistance   define.SizeT
}

// LRUKReplacer implements the LRU-k replacement policy.
//
// The LRU-k algorithm evicts a frame whose backward k-distance is maximum
// of all frames. Backward k-distance is computed as the difference in time between
// current timestamp and the timestamp of kth previous access.
//
// A frame with less than k historical references is given
// +inf as its backward k-distance. When multiple frames have +inf backward k-distance,
// classical LRU algorithm is used to choose victim.
type LRUKReplacer struct {
	currSize     define.SizeT
	replacerSize define.SizeT // max frame number of replacer
	k            define.SizeT
	currentTs    define.SizeT
	mu           sync.RWMutex

	records map[define.FrameIdT]*frameRecord
}

// New create a lru-k replacer
func New(numFrames, k define.SizeT) *LRUKReplacer {
	return &LRUKReplacer{
		currSize:     0,
		replacerSize: numFrames,
		k:            k,
		currentTs:    0,
		mu:           sync.RWMutex{},
		records:      make(map[define.FrameIdT]*frameRecord),
	}
}

// Evict Find the frame with the largest backward k-distance and evict that frame. Only frames
// that are marked as 'evictable' are candidates for eviction.
//
// A frame with less than k historical references is given +inf as its backward k-distance.
// If multiple frames have the same backward k-distance, then evict the frame with the
// earliest recorded access timestamp.
//
// Successful eviction of a frame should decrement the size of replacer and remove the frame's
// access history.
func (r *LRUKReplacer) Evict() (define.FrameIdT, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	var (
		victimId     define.FrameIdT
		found        bool
		maxDistance  define.SizeT
		earliestSeen define.SizeT
	)

	for id, record := range r.records {
		if !record.isEvictable {
			continue
		}

		distance := r.backwardKDistance(record)
		front := record.history[0]
		if !found || distance > maxDistance || (distance == maxDistance && front < earliestSeen) {
			victimId = id
			found = true
			maxDistance = distance
			earliestSeen = front
		}
	}

	if !found {
		return 0, false
	}

	delete(r.records, victimId)
	r.currSize--
	return victimId, true
}

// RecordAccess Record the event that the given frame id is accessed at current timestamp.
// Create a new entry for access history if frame id has not been seen before.
//
// Returns ErrInvalidFrame if frame id is invalid (i.e. negative or not less than replacerSize).
func (r *LRUKReplacer) RecordAccess(frameId define.FrameIdT) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFrameId(frameId); err != nil {
		return err
	}

	record, ok := r.records[frameId]
	if !ok {
		record = &frameRecord{history: make([]define.SizeT, 0, r.k)}
		r.records[frameId] = record
	}

	record.history = append(record.history, r.currentTs)
	if define.SizeT(len(record.history)) > r.k {
		// keep the last k accesses only
		record.history = record.history[:copy(record.history, record.history[1:])]
	}

	r.currentTs++
	record.kDistance = r.backwardKDistance(record)
	return nil
}

// SetEvictable Toggle whether a frame is evictable or non-evictable. This function also
// controls replacer's size. Note that size is equal to number of evictable entries.
//
// If a frame was previously evictable and is to be set to non-evictable, then size should
// decrement. If a frame was previously non-evictable and is to be set to evictable,
// then size should increment.
//
// Returns ErrInvalidFrame if frame id is invalid. If the frame has no record
// yet, this function terminates without modifying anything.
func (r *LRUKReplacer) SetEvictable(frameId define.FrameIdT, isEvict bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFrameId(frameId); err != nil {
		return err
	}

	record, ok := r.records[frameId]
	if !ok {
		// not in buffer pool
		return nil
	}

	if record.isEvictable != isEvict {
		record.isEvictable = isEvict
		if isEvict {
			r.currSize++
		} else {
			r.currSize--
		}
	}
	return nil
}

// Remove an evictable frame from replacer, along with its access history.
// This function should also decrement replacer's size if removal is successful.
//
// Note that this is different from evicting a frame, which always remove the frame
// with the largest backward k-distance. This function removes specified frame id,
// no matter what its backward k-distance is.
//
// Returns ErrRemoveNonEvictable when called on a present, non-evictable
// frame. If the specified frame is not found, directly return from this function.
func (r *LRUKReplacer) Remove(frameId define.FrameIdT) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[frameId]
	if !ok {
		// not in buffer pool
		return nil
	}

	if !record.isEvictable {
		return fmt.Errorf("remove frame %d: %w", frameId, ErrRemoveNonEvictable)
	}

	delete(r.records, frameId)
	r.currSize--
	return nil
}

// Size Return replacer's size, which tracks the number of evictable frames.
func (r *LRUKReplacer) Size() define.SizeT {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currSize
}

// internal

// backwardKDistance derives the frame's distance against the current clock:
// +inf with fewer than k accesses, otherwise the age of the kth most recent
// access. history is capped at k, so that access sits at the head.
func (r *LRUKReplacer) backwardKDistance(record *frameRecord) define.SizeT {
	if define.SizeT(len(record.history)) < r.k {
		return infDistance
	}
	return r.currentTs - record.history[0]
}

func (r *LRUKReplacer) checkFrameId(frameId define.FrameIdT) error {
	if frameId < 0 || define.SizeT(frameId) >= r.replacerSize {
		return fmt.Errorf("frame %d: %w", frameId, ErrInvalidFrame)
	}
	return nil
}
