package define

// SizeT counts sizes, depths and logical timestamps.
type SizeT uint64

// FrameIdT identifies a frame slot in the buffer pool.
type FrameIdT int32

// PageIdT identifies a page held by the cache manager.
type PageIdT int64
