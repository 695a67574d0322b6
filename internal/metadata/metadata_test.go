package metadata

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-ingest/internal/ffmpeg"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

func writeTestJPEG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return path
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "plain.jpg", 320, 240)

	m, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage failed: %v", err)
	}

	if m.MediaType != mediatypes.MediaTypeImage {
		t.Errorf("MediaType = %q, want image", m.MediaType)
	}
	if m.Width != 320 || m.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", m.Width, m.Height)
	}
	if m.Orientation != 1 {
		t.Errorf("Orientation = %d, want 1 for EXIF-less file", m.Orientation)
	}
	if m.CameraMake != "" || m.CameraModel != "" {
		t.Errorf("camera fields should be empty without EXIF, got %q/%q", m.CameraMake, m.CameraModel)
	}
	if m.GPSLatitude != nil || m.GPSLongitude != nil {
		t.Error("GPS fields should be nil without EXIF")
	}
	if m.FileSize <= 0 {
		t.Errorf("FileSize = %d, want > 0", m.FileSize)
	}
}

func TestReadImageCaptureDateFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "nodate.jpg", 16, 16)

	mtime := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	m, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage failed: %v", err)
	}
	if !m.CaptureDate.Equal(mtime) {
		t.Errorf("CaptureDate = %v, want modification time %v", m.CaptureDate, mtime)
	}
}

func TestReadImageMissingFile(t *testing.T) {
	_, err := ReadImage(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, media.ErrUnreadableFile) {
		t.Errorf("err = %v, want ErrUnreadableFile", err)
	}
}

func TestReadImageCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := ReadImage(path)
	if !errors.Is(err, media.ErrDecodeFailure) {
		t.Errorf("err = %v, want ErrDecodeFailure for undecodable bytes", err)
	}
}

func TestValidateGPS(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid mid-range", 48.8584, 2.2945, false},
		{"valid southern western", -33.8568, -151.2153, false},
		{"boundary north pole", 90, 0, false},
		{"boundary date line", 0, -180, false},
		{"latitude too large", 90.0001, 0, true},
		{"latitude too small", -91, 0, true},
		{"longitude too large", 0, 180.5, true},
		{"longitude too small", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGPS(tt.lat, tt.lon)
			if tt.wantErr {
				if !errors.Is(err, media.ErrDecodeFailure) {
					t.Errorf("ValidateGPS(%v, %v) = %v, want ErrDecodeFailure", tt.lat, tt.lon, err)
				}
			} else if err != nil {
				t.Errorf("ValidateGPS(%v, %v) = %v, want nil", tt.lat, tt.lon, err)
			}
		})
	}
}

type fakeProber struct {
	info ffmpeg.StreamInfo
	err  error
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*ffmpeg.StreamInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.info, nil
}

func TestVideoReaderRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("fake video payload"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	mtime := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	r := NewVideoReader(&fakeProber{info: ffmpeg.StreamInfo{
		DurationSeconds: 42.5,
		Width:           1920,
		Height:          1080,
		Codec:           "h264",
	}})

	m, err := r.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if m.MediaType != mediatypes.MediaTypeVideo {
		t.Errorf("MediaType = %q, want video", m.MediaType)
	}
	if m.Width != 1920 || m.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", m.Width, m.Height)
	}
	if m.DurationSeconds != 42.5 {
		t.Errorf("DurationSeconds = %v, want 42.5", m.DurationSeconds)
	}
	if m.VideoCodec != "h264" {
		t.Errorf("VideoCodec = %q, want h264", m.VideoCodec)
	}
	if !m.CaptureDate.Equal(mtime) {
		t.Errorf("CaptureDate = %v, want file mtime %v", m.CaptureDate, mtime)
	}
	if m.CameraMake != "" || m.GPSLatitude != nil {
		t.Error("videos must not carry camera or GPS fields")
	}
}

func TestVideoReaderProbeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := NewVideoReader(&fakeProber{err: ffmpeg.ErrNoVideoStream})
	_, err := r.Read(context.Background(), path)
	if !errors.Is(err, ffmpeg.ErrNoVideoStream) {
		t.Errorf("err = %v, want ErrNoVideoStream", err)
	}
}

func TestVideoReaderMissingFile(t *testing.T) {
	r := NewVideoReader(&fakeProber{})
	_, err := r.Read(context.Background(), filepath.Join(t.TempDir(), "gone.mp4"))
	if !errors.Is(err, media.ErrUnreadableFile) {
		t.Errorf("err = %v, want ErrUnreadableFile", err)
	}
}
