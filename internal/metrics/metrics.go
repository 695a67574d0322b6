package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_scan_runs_total",
			Help: "Total number of directory scans",
		},
		[]string{"status"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_ingest_scan_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	ScanFilesDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_scan_files_discovered_total",
			Help: "Total number of media files discovered by scans",
		},
		[]string{"type"},
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_scan_errors_total",
			Help: "Total number of per-file errors collected during scans",
		},
	)
)

// Metadata metrics
var (
	MetadataReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_metadata_reads_total",
			Help: "Total number of metadata extraction attempts",
		},
		[]string{"type", "status"},
	)

	MetadataReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_metadata_read_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"type"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)
)

// Frame extraction metrics
var (
	FrameExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_frame_extractions_total",
			Help: "Total number of video frame extractions",
		},
		[]string{"codec", "status"},
	)

	FrameExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_frame_extraction_duration_seconds",
			Help:    "Video frame extraction duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"codec"},
	)
)

// Catalog metrics
var (
	CatalogWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_catalog_writes_total",
			Help: "Total number of catalog write operations",
		},
		[]string{"status"},
	)
)
