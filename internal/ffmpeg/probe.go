package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// StreamInfo describes the primary video stream of a media file.
type StreamInfo struct {
	DurationSeconds float64 `json:"duration"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
}

// Prober obtains stream information for a video file. Like FrameDecoder it
// exists so tests can fake the subprocess boundary.
type Prober interface {
	Probe(ctx context.Context, path string) (*StreamInfo, error)
}

// FFProbe is the ffprobe-backed Prober.
type FFProbe struct{}

// NewProber returns a Prober that shells out to ffprobe.
func NewProber() *FFProbe {
	return &FFProbe{}
}

// probeOutput mirrors the subset of ffprobe's JSON output we consume.
type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs a single ffprobe invocation returning duration, codec name and
// pixel dimensions in one subprocess round-trip. One combined call rather
// than separate duration/codec probes keeps process-spawn overhead down.
func (p *FFProbe) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	if status := Check(); !status.Available {
		return nil, fmt.Errorf("probe %s: %w", path, ErrUnavailable)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe for %s: %w: %s", path, ErrDecode, firstLine(stderr.String()))
	}

	return parseProbeOutput(stdout.Bytes(), path)
}

// parseProbeOutput extracts the primary video stream from ffprobe JSON.
func parseProbeOutput(data []byte, path string) (*StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", path, ErrDecode)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}

		info := &StreamInfo{
			Width:  s.Width,
			Height: s.Height,
			Codec:  s.CodecName,
		}
		// Container-level duration is the reliable one; stream duration is a
		// fallback for containers that don't carry it.
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			info.DurationSeconds = d
		} else if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
			info.DurationSeconds = d
		}
		return info, nil
	}

	return nil, fmt.Errorf("probe %s: %w", path, ErrNoVideoStream)
}
