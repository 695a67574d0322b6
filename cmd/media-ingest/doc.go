// Package main is the media-ingest command: it scans a library root,
// extracts metadata, generates a content-addressed thumbnail cache, and
// records everything in a SQLite catalog.
//
// A typical run:
//
//	media-ingest -root /media/photos -cache /var/cache/thumbnails
//
// or with a config file:
//
//	media-ingest -config /etc/media-ingest.yaml
//
// While a run is in progress an optional observability endpoint serves
// Prometheus metrics (/metrics), the per-codec extraction timing snapshot
// (/stats), and a health check (/healthz). ffmpeg availability is probed
// once at startup; when the binary is missing, video files are skipped
// wholesale and the run reports how many.
package main
