// Package catalog persists ingest results in SQLite. Each row is one
// scanned media file: its extracted metadata, content checksum, and
// thumbnail cache locations. Identity is the file path; re-ingesting a
// path replaces its row.
package catalog
