// Package metrics defines Prometheus collectors for the ingestion pipeline:
// scan throughput and errors, metadata extraction, thumbnail generation and
// cache effectiveness, and video frame extraction by codec.
//
// Collectors are registered with the default registry via promauto; the CLI
// exposes them on /metrics when the metrics listener is enabled.
package metrics
