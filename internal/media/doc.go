// Package media renders and caches thumbnails. The cache is content
// addressed: entries are keyed by the SHA-256 of the source bytes plus a
// size class, written atomically via temp-file rename, and reused while the
// cached entry is at least as new as the source file. Still images decode
// in-process (libvips for RAW and HEIC, stdlib and x/image for the rest);
// videos go through an ffmpeg frame extraction with per-codec timing.
package media
