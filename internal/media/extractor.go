package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"media-ingest/internal/codecstats"
	"media-ingest/internal/ffmpeg"
	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"
)

// frameSeekSeconds is where a representative frame is sampled. Clips
// shorter than the seek point are sampled at their first frame instead.
const frameSeekSeconds = 5.0

// FrameExtractor turns videos into thumbnails: one frame decoded by ffmpeg,
// then rendered through the same resize pipeline as still images. Every
// decoder invocation is timed per codec so slow codecs surface in the
// stats report.
type FrameExtractor struct {
	thumbs *Thumbnailer
	dec    ffmpeg.FrameDecoder
	stats  *codecstats.Tracker
}

func NewFrameExtractor(thumbs *Thumbnailer, dec ffmpeg.FrameDecoder, stats *codecstats.Tracker) *FrameExtractor {
	return &FrameExtractor{thumbs: thumbs, dec: dec, stats: stats}
}

// seekFor picks the sample point for a clip. Durations under the seek
// target would put the sample past the end, so those start at zero.
func seekFor(durationSeconds float64) float64 {
	if durationSeconds >= frameSeekSeconds {
		return frameSeekSeconds
	}
	return 0
}

// GenerateVideo produces thumbnails for a video. Fresh cached entries are
// reused without touching ffmpeg; otherwise a frame is extracted, with one
// retry at the first frame when seeking hits a corrupt region. Codec
// timing is recorded for every extraction, successful or not.
func (e *FrameExtractor) GenerateVideo(ctx context.Context, path, checksum string, stream ffmpeg.StreamInfo, sourceModTime time.Time) (ThumbnailSet, error) {
	err := e.thumbs.cache.WithKey(checksum, func() error {
		stale := e.thumbs.staleSizes(checksum, sourceModTime)
		if len(stale) == 0 {
			logging.Debug("thumbnail cache hit for %s", path)
			return nil
		}

		frame, err := e.extractFrame(ctx, path, stream)
		if err != nil {
			return err
		}

		img, _, err := image.Decode(bytes.NewReader(frame))
		if err != nil {
			return fmt.Errorf("decode extracted frame: %w", ErrDecodeFailure)
		}
		return e.thumbs.render(img, checksum, stale)
	})
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("video", "error").Inc()
		return ThumbnailSet{}, fmt.Errorf("thumbnails for %s: %w", path, err)
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("video", "success").Inc()
	return e.thumbs.Paths(checksum), nil
}

// extractFrame runs the decoder at the seek point, retrying once at frame
// zero when a positive seek lands in a corrupt region. Stream-level
// failures (no video stream, unsupported codec) are not retried.
func (e *FrameExtractor) extractFrame(ctx context.Context, path string, stream ffmpeg.StreamInfo) ([]byte, error) {
	codec := stream.Codec
	if codec == "" {
		codec = "unknown"
	}

	start := time.Now()
	seek := seekFor(stream.DurationSeconds)
	frame, err := e.dec.ExtractFrame(ctx, path, seek)

	if err != nil && seek > 0 && errors.Is(err, ffmpeg.ErrDecode) {
		logging.Debug("seek to %.1fs failed for %s, retrying at start: %v", seek, path, err)
		frame, err = e.dec.ExtractFrame(ctx, path, 0)
	}

	elapsed := time.Since(start)
	e.stats.Record(codec, elapsed.Milliseconds(), err == nil)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.FrameExtractionsTotal.WithLabelValues(codec, status).Inc()
	metrics.FrameExtractionDuration.WithLabelValues(codec).Observe(elapsed.Seconds())

	if err != nil {
		switch {
		case errors.Is(err, ffmpeg.ErrUnsupportedCodec):
			return nil, fmt.Errorf("codec %s: %w", codec, err)
		case errors.Is(err, ffmpeg.ErrNoVideoStream):
			return nil, err
		default:
			return nil, fmt.Errorf("extract frame: %w", err)
		}
	}
	return frame, nil
}
