package metadata

import (
	"context"
	"fmt"
	"os"

	"media-ingest/internal/ffmpeg"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

// VideoReader extracts metadata from video files via a single ffprobe
// invocation per file.
type VideoReader struct {
	prober ffmpeg.Prober
}

// NewVideoReader returns a reader backed by the given prober.
func NewVideoReader(p ffmpeg.Prober) *VideoReader {
	return &VideoReader{prober: p}
}

// Read probes the video at path. Videos never carry camera or GPS fields;
// the capture date is always the file modification time. All stream facts
// (dimensions, duration, codec) come from one probe call.
func (r *VideoReader) Read(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, media.ErrUnreadableFile)
	}

	stream, err := r.prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	return &Metadata{
		Path:            path,
		MediaType:       mediatypes.MediaTypeVideo,
		CaptureDate:     info.ModTime(),
		Width:           stream.Width,
		Height:          stream.Height,
		DurationSeconds: stream.DurationSeconds,
		VideoCodec:      stream.Codec,
		FileSize:        info.Size(),
		FileModified:    info.ModTime(),
	}, nil
}
