package pipeline

import (
	"context"
	"sync"
	"time"

	"media-ingest/internal/catalog"
	"media-ingest/internal/ffmpeg"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metadata"
	"media-ingest/internal/metrics"
	"media-ingest/internal/scanner"
	"media-ingest/internal/workers"
)

// Store persists finished entries.
type Store interface {
	Upsert(ctx context.Context, e *catalog.Entry) error
}

// ImageThumbnailer renders still-image thumbnails.
type ImageThumbnailer interface {
	GenerateImage(path, checksum string, sourceModTime time.Time) (media.ThumbnailSet, error)
}

// VideoThumbnailer renders video thumbnails from an extracted frame.
type VideoThumbnailer interface {
	GenerateVideo(ctx context.Context, path, checksum string, stream ffmpeg.StreamInfo, sourceModTime time.Time) (media.ThumbnailSet, error)
}

// VideoMetadataReader probes video stream facts.
type VideoMetadataReader interface {
	Read(ctx context.Context, path string) (*metadata.Metadata, error)
}

// FileError records a per-file failure with the stage it occurred in.
type FileError struct {
	Path    string `json:"path"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Report summarizes one ingest run.
type Report struct {
	ImagesIngested int                 `json:"imagesIngested"`
	VideosIngested int                 `json:"videosIngested"`
	VideosSkipped  int                 `json:"videosSkipped"`
	ThumbnailFails int                 `json:"thumbnailFails"`
	Errors         []FileError         `json:"errors,omitempty"`
	ScanErrors     []scanner.ScanError `json:"scanErrors,omitempty"`
	Duration       time.Duration       `json:"duration"`
}

// Pipeline drives a full ingest: scan, per-file metadata and thumbnails,
// catalog writes. Per-file failures are collected into the report; only a
// broken scan root or cancellation aborts the run.
type Pipeline struct {
	scanner *scanner.Scanner
	store   Store

	imageThumbs ImageThumbnailer
	videoThumbs VideoThumbnailer
	videoMeta   VideoMetadataReader

	// readImage is swappable for tests; defaults to metadata.ReadImage.
	readImage func(path string) (*metadata.Metadata, error)
	// checksum is swappable for tests; defaults to media.Checksum.
	checksum func(path string) (string, error)

	numWorkers int
	// videoEnabled is false when ffmpeg is missing: videos are then skipped
	// wholesale instead of failing one by one.
	videoEnabled bool
}

// Options configures a Pipeline.
type Options struct {
	Workers      int
	VideoEnabled bool
	VideoThumbs  VideoThumbnailer
	VideoMeta    VideoMetadataReader
}

// New assembles a pipeline over the given scanner, thumbnailer, and store.
func New(scan *scanner.Scanner, imageThumbs ImageThumbnailer, store Store, opts Options) *Pipeline {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = workers.ForCPU(16)
	}
	return &Pipeline{
		scanner:      scan,
		store:        store,
		imageThumbs:  imageThumbs,
		videoThumbs:  opts.VideoThumbs,
		videoMeta:    opts.VideoMeta,
		readImage:    metadata.ReadImage,
		checksum:     media.Checksum,
		numWorkers:   numWorkers,
		videoEnabled: opts.VideoEnabled && opts.VideoThumbs != nil && opts.VideoMeta != nil,
	}
}

// Run ingests everything under root. The returned report is non-nil
// whenever the scan itself succeeded, even if every file failed.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	start := time.Now()

	outcome, err := p.scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	report := &Report{ScanErrors: outcome.Errors}
	if !p.videoEnabled && outcome.VideoCount > 0 {
		logging.Warn("ffmpeg unavailable: skipping %d videos", outcome.VideoCount)
	}

	jobs := make(chan scanner.MediaFile)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				p.processFile(ctx, file, report, &mu)
			}
		}()
	}

feed:
	for _, file := range outcome.Files {
		select {
		case jobs <- file:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logging.Info("Ingest complete: %d images, %d videos in %v (errors: %d, skipped videos: %d)",
		report.ImagesIngested, report.VideosIngested, report.Duration,
		len(report.Errors), report.VideosSkipped)
	return report, nil
}

// processFile runs one file through metadata, thumbnails, and the catalog.
// Failures before metadata is available drop the file with a recorded
// error; thumbnail failures still catalog the entry with placeholder paths.
func (p *Pipeline) processFile(ctx context.Context, file scanner.MediaFile, report *Report, mu *sync.Mutex) {
	record := func(stage string, err error) {
		mu.Lock()
		report.Errors = append(report.Errors, FileError{Path: file.Path, Stage: stage, Message: err.Error()})
		mu.Unlock()
		logging.Warn("%s failed for %s: %v", stage, file.Path, err)
	}

	if file.Type == mediatypes.MediaTypeVideo && !p.videoEnabled {
		mu.Lock()
		report.VideosSkipped++
		mu.Unlock()
		return
	}

	checksum, err := p.checksum(file.Path)
	if err != nil {
		record("checksum", err)
		return
	}

	var meta *metadata.Metadata
	var thumbs media.ThumbnailSet
	var thumbErr error

	switch file.Type {
	case mediatypes.MediaTypeImage:
		start := time.Now()
		meta, err = p.readImage(file.Path)
		if err != nil {
			metrics.MetadataReadsTotal.WithLabelValues("image", "error").Inc()
			record("metadata", err)
			return
		}
		metrics.MetadataReadsTotal.WithLabelValues("image", "success").Inc()
		metrics.MetadataReadDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())

		thumbs, thumbErr = p.imageThumbs.GenerateImage(file.Path, checksum, meta.FileModified)

	case mediatypes.MediaTypeVideo:
		start := time.Now()
		meta, err = p.videoMeta.Read(ctx, file.Path)
		if err != nil {
			metrics.MetadataReadsTotal.WithLabelValues("video", "error").Inc()
			record("metadata", err)
			return
		}
		metrics.MetadataReadsTotal.WithLabelValues("video", "success").Inc()
		metrics.MetadataReadDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())

		thumbs, thumbErr = p.videoThumbs.GenerateVideo(ctx, file.Path, checksum, ffmpeg.StreamInfo{
			DurationSeconds: meta.DurationSeconds,
			Width:           meta.Width,
			Height:          meta.Height,
			Codec:           meta.VideoCodec,
		}, meta.FileModified)

	default:
		return
	}

	entry := &catalog.Entry{
		Metadata:   *meta,
		Checksum:   checksum,
		Thumbnails: thumbs,
	}
	if thumbErr != nil {
		// Placeholder contract: the entry is cataloged without thumbnail
		// paths so a later run can fill them in.
		entry.Thumbnails = media.ThumbnailSet{}
		entry.ThumbnailError = thumbErr.Error()
		mu.Lock()
		report.ThumbnailFails++
		mu.Unlock()
		record("thumbnail", thumbErr)
	}

	if err := p.store.Upsert(ctx, entry); err != nil {
		record("catalog", err)
		return
	}

	mu.Lock()
	if file.Type == mediatypes.MediaTypeImage {
		report.ImagesIngested++
	} else {
		report.VideosIngested++
	}
	mu.Unlock()
}
