package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"media-ingest/internal/logging"
)

// Sentinel errors for subprocess failure classification. Callers distinguish
// them with errors.Is to pick a recovery strategy.
var (
	// ErrUnavailable means the ffmpeg/ffprobe binaries are not installed.
	ErrUnavailable = errors.New("ffmpeg not available")
	// ErrNoVideoStream means the input has no video stream (e.g. audio-only).
	ErrNoVideoStream = errors.New("no video stream")
	// ErrUnsupportedCodec means the input's codec has no decoder.
	ErrUnsupportedCodec = errors.New("unsupported codec")
	// ErrDecode is a generic decode failure (corrupt or truncated stream).
	ErrDecode = errors.New("decode failed")
)

// Status reports the result of the availability check.
type Status struct {
	Available bool
	Version   string
	Err       string
}

var (
	checkOnce   sync.Once
	checkStatus Status
)

// Check probes for the ffmpeg binary once per process and caches the result.
// Callers use it to disable video features wholesale instead of failing
// file-by-file.
func Check() Status {
	checkOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-version").Output()
		if err != nil {
			checkStatus = Status{
				Available: false,
				Err:       "ffmpeg is not installed; video metadata and thumbnails are disabled",
			}
			logging.Warn("ffmpeg not found: %v", err)
			return
		}

		version := "unknown"
		if lines := strings.SplitN(string(out), "\n", 2); len(lines) > 0 {
			version = strings.TrimSpace(lines[0])
		}
		checkStatus = Status{Available: true, Version: version}
		logging.Info("ffmpeg available: %s", version)
	})
	return checkStatus
}

// FrameDecoder extracts a single decoded frame from a video file. It is the
// narrow boundary around the external decoder process; tests substitute a
// fake implementation so the pipeline never needs a real binary.
type FrameDecoder interface {
	// ExtractFrame returns the PNG-encoded bytes of one frame at seekSeconds.
	ExtractFrame(ctx context.Context, path string, seekSeconds float64) ([]byte, error)
}

// Decoder is the ffmpeg-backed FrameDecoder.
type Decoder struct{}

// NewDecoder returns a FrameDecoder that shells out to ffmpeg.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// frameArgs builds the ffmpeg argument list for single-frame extraction.
// The seek is placed before -i so ffmpeg seeks on the demuxer before opening
// the decoder, which is far cheaper than decoding up to the target. Decoding
// runs single-threaded since only one frame is produced, and the frame is
// piped to stdout as PNG so no intermediate file touches disk.
func frameArgs(path string, seekSeconds float64) []string {
	args := make([]string, 0, 12)
	if seekSeconds > 0 {
		args = append(args, "-ss", strconv.FormatFloat(seekSeconds, 'f', 3, 64))
	}
	args = append(args,
		"-i", path,
		"-threads", "1",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	return args
}

// ExtractFrame runs ffmpeg and returns the raw PNG bytes of one frame.
// The subprocess is killed when ctx is cancelled.
func (d *Decoder) ExtractFrame(ctx context.Context, path string, seekSeconds float64) ([]byte, error) {
	if status := Check(); !status.Available {
		return nil, fmt.Errorf("extract frame from %s: %w", path, ErrUnavailable)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", frameArgs(path, seekSeconds)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg frame extraction for %s: %w", path, classifyStderr(stderr.String()))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s: %w", path, ErrDecode)
	}
	return stdout.Bytes(), nil
}

// classifyStderr maps ffmpeg stderr output onto the sentinel errors.
func classifyStderr(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "decoder not found"),
		strings.Contains(lower, "no decoder for"),
		strings.Contains(lower, "codec not currently supported"):
		return ErrUnsupportedCodec
	case strings.Contains(lower, "does not contain any stream"),
		strings.Contains(lower, "no video stream"),
		strings.Contains(lower, "stream map 'v' matches no streams"):
		return ErrNoVideoStream
	default:
		return fmt.Errorf("%w: %s", ErrDecode, firstLine(stderr))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		// ffmpeg banner noise comes first; keep the tail, which carries the
		// actual error line.
		lines := strings.Split(s, "\n")
		return strings.TrimSpace(lines[len(lines)-1])
	}
	return s
}
