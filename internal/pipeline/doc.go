// Package pipeline orchestrates a full ingest run: scan the library root,
// fan files out over a worker pool for metadata extraction and thumbnail
// generation, and write finished entries to the catalog. A missing ffmpeg
// disables video processing wholesale; every other failure is per-file and
// lands in the run report.
package pipeline
