package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"media-ingest/internal/codecstats"
	"media-ingest/internal/ffmpeg"
)

// fakeDecoder records every invocation and can fail selected seek points.
type fakeDecoder struct {
	calls    []float64
	failSeek map[float64]error
	frame    []byte
}

func (d *fakeDecoder) ExtractFrame(ctx context.Context, path string, seekSeconds float64) ([]byte, error) {
	d.calls = append(d.calls, seekSeconds)
	if err, ok := d.failSeek[seekSeconds]; ok {
		return nil, err
	}
	return d.frame, nil
}

func pngFrame(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.Bytes()
}

func newTestExtractor(t *testing.T, dec *fakeDecoder) (*FrameExtractor, *codecstats.Tracker) {
	t.Helper()
	stats := codecstats.NewTracker()
	return NewFrameExtractor(newTestThumbnailer(t), dec, stats), stats
}

func TestSeekFor(t *testing.T) {
	tests := []struct {
		duration float64
		want     float64
	}{
		{120, 5},
		{5, 5},
		{4.9, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := seekFor(tt.duration); got != tt.want {
			t.Errorf("seekFor(%v) = %v, want %v", tt.duration, got, tt.want)
		}
	}
}

func TestGenerateVideoLongClipSeeksAt5(t *testing.T) {
	dec := &fakeDecoder{frame: pngFrame(t, 1280, 720)}
	ex, _ := newTestExtractor(t, dec)

	set, err := ex.GenerateVideo(context.Background(), "/v/clip.mp4", "aa11", ffmpeg.StreamInfo{
		DurationSeconds: 60, Codec: "h264",
	}, time.Now())
	if err != nil {
		t.Fatalf("GenerateVideo failed: %v", err)
	}

	if len(dec.calls) != 1 || dec.calls[0] != 5 {
		t.Errorf("decoder calls = %v, want one call at seek 5", dec.calls)
	}

	w, h := decodeDims(t, set.Small)
	if w != 150 || h != 84 {
		t.Errorf("small = %dx%d, want 150x84", w, h)
	}
}

func TestGenerateVideoShortClipStartsAtZero(t *testing.T) {
	dec := &fakeDecoder{frame: pngFrame(t, 640, 480)}
	ex, _ := newTestExtractor(t, dec)

	_, err := ex.GenerateVideo(context.Background(), "/v/short.mp4", "bb22", ffmpeg.StreamInfo{
		DurationSeconds: 3, Codec: "h264",
	}, time.Now())
	if err != nil {
		t.Fatalf("GenerateVideo failed: %v", err)
	}

	if len(dec.calls) != 1 || dec.calls[0] != 0 {
		t.Errorf("decoder calls = %v, want one call at seek 0", dec.calls)
	}
}

func TestGenerateVideoRetriesAtZeroOnDecodeError(t *testing.T) {
	dec := &fakeDecoder{
		frame:    pngFrame(t, 640, 480),
		failSeek: map[float64]error{5: ffmpeg.ErrDecode},
	}
	ex, _ := newTestExtractor(t, dec)

	_, err := ex.GenerateVideo(context.Background(), "/v/corrupt-tail.mp4", "cc33", ffmpeg.StreamInfo{
		DurationSeconds: 30, Codec: "hevc",
	}, time.Now())
	if err != nil {
		t.Fatalf("GenerateVideo should recover via retry, got: %v", err)
	}

	want := []float64{5, 0}
	if len(dec.calls) != 2 || dec.calls[0] != want[0] || dec.calls[1] != want[1] {
		t.Errorf("decoder calls = %v, want %v", dec.calls, want)
	}
}

func TestGenerateVideoNoRetryForUnsupportedCodec(t *testing.T) {
	dec := &fakeDecoder{
		failSeek: map[float64]error{5: ffmpeg.ErrUnsupportedCodec},
	}
	ex, _ := newTestExtractor(t, dec)

	_, err := ex.GenerateVideo(context.Background(), "/v/exotic.mp4", "dd44", ffmpeg.StreamInfo{
		DurationSeconds: 30, Codec: "prores_raw",
	}, time.Now())
	if !errors.Is(err, ffmpeg.ErrUnsupportedCodec) {
		t.Fatalf("err = %v, want ErrUnsupportedCodec", err)
	}

	if len(dec.calls) != 1 {
		t.Errorf("decoder called %d times, want 1 (stream-level failures are not retried)", len(dec.calls))
	}
}

func TestGenerateVideoRecordsStatsOnFailure(t *testing.T) {
	dec := &fakeDecoder{
		failSeek: map[float64]error{5: ffmpeg.ErrDecode, 0: ffmpeg.ErrDecode},
	}
	ex, stats := newTestExtractor(t, dec)

	_, err := ex.GenerateVideo(context.Background(), "/v/broken.mp4", "ee55", ffmpeg.StreamInfo{
		DurationSeconds: 30, Codec: "vp9",
	}, time.Now())
	if err == nil {
		t.Fatal("expected failure")
	}

	snap := stats.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("stats entries = %d, want 1", len(snap))
	}
	if snap[0].CodecName != "vp9" {
		t.Errorf("codec = %q, want vp9", snap[0].CodecName)
	}
	if snap[0].SampleCount != 1 || snap[0].SuccessCount != 0 {
		t.Errorf("samples=%d successes=%d, want 1/0 (failed extractions still count)",
			snap[0].SampleCount, snap[0].SuccessCount)
	}
}

func TestGenerateVideoEmptyCodecRecordedAsUnknown(t *testing.T) {
	dec := &fakeDecoder{frame: pngFrame(t, 320, 240)}
	ex, stats := newTestExtractor(t, dec)

	_, err := ex.GenerateVideo(context.Background(), "/v/mystery.avi", "ff66", ffmpeg.StreamInfo{
		DurationSeconds: 10,
	}, time.Now())
	if err != nil {
		t.Fatalf("GenerateVideo failed: %v", err)
	}

	snap := stats.Snapshot()
	if len(snap) != 1 || snap[0].CodecName != "unknown" {
		t.Errorf("stats = %+v, want single entry under codec unknown", snap)
	}
}

func TestGenerateVideoCacheHitSkipsDecoder(t *testing.T) {
	dec := &fakeDecoder{frame: pngFrame(t, 640, 480)}
	ex, _ := newTestExtractor(t, dec)

	mtime := time.Now().Add(-time.Hour)
	info := ffmpeg.StreamInfo{DurationSeconds: 30, Codec: "h264"}

	if _, err := ex.GenerateVideo(context.Background(), "/v/clip.mp4", "abcd", info, mtime); err != nil {
		t.Fatalf("first GenerateVideo failed: %v", err)
	}
	first := len(dec.calls)

	set, err := ex.GenerateVideo(context.Background(), "/v/clip.mp4", "abcd", info, mtime)
	if err != nil {
		t.Fatalf("second GenerateVideo failed: %v", err)
	}
	if len(dec.calls) != first {
		t.Errorf("decoder invoked again on a fresh cache (%d -> %d calls)", first, len(dec.calls))
	}
	if _, err := os.Stat(set.Medium); err != nil {
		t.Errorf("cached medium thumbnail missing: %v", err)
	}
}
