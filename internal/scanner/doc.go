// Package scanner discovers media files under a library root. The walk
// fans out over a worker pool, classifies by extension, and isolates
// per-file failures into the scan outcome so a single unreadable entry
// never aborts the batch.
package scanner
