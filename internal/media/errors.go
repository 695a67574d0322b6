package media

import "errors"

// Pipeline error taxonomy. Per-file failures during a scan are collected
// into the scan report rather than aborting the batch; callers classify
// them with errors.Is to decide between placeholder, retry, and skip.
var (
	// ErrUnreadableFile is a permission or I/O failure on the source file.
	ErrUnreadableFile = errors.New("unreadable file")
	// ErrUnsupportedFormat means no decoder exists for the source format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDecodeFailure means the source bytes could not be decoded.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrCacheWrite is a failure writing a thumbnail into the cache.
	ErrCacheWrite = errors.New("cache write failure")
)
