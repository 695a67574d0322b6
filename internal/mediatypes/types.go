package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaType represents the broad category of a media file.
type MediaType string

const (
	// MediaTypeImage represents a still image file.
	MediaTypeImage MediaType = "image"
	// MediaTypeVideo represents a video file.
	MediaTypeVideo MediaType = "video"
)

// DefaultImageFormats is the canonical list of supported image extensions
// (lowercase, no leading dot). It is the single source of truth for the
// default configuration; call sites must not duplicate it.
var DefaultImageFormats = []string{
	"jpg", "jpeg", "png", "gif", "bmp", "webp", "tiff", "tif",
	"heic", "heif", "raw", "cr2", "nef", "arw", "dng",
}

// DefaultVideoFormats is the canonical list of supported video extensions.
var DefaultVideoFormats = []string{
	"mp4", "mov", "avi", "mkv", "webm", "m4v", "mpg", "mpeg",
	"wmv", "flv", "3gp", "ts",
}

// RawFormats are the image extensions that require the vips decode path
// rather than the standard library decoders.
var RawFormats = map[string]bool{
	"heic": true, "heif": true, "raw": true,
	"cr2": true, "nef": true, "arw": true, "dng": true,
}

// FormatConfig holds the extension allow-lists that drive classification.
// Extensions are stored lowercase without a leading dot.
type FormatConfig struct {
	ImageFormats []string `yaml:"image_formats" json:"imageFormats"`
	VideoFormats []string `yaml:"video_formats" json:"videoFormats"`
}

// DefaultFormatConfig returns a FormatConfig covering the default format lists.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		ImageFormats: append([]string(nil), DefaultImageFormats...),
		VideoFormats: append([]string(nil), DefaultVideoFormats...),
	}
}

// Validate rejects configurations with an empty allow-list. A config with no
// image formats or no video formats would silently exclude an entire media
// class, which is never what a caller wants to persist.
func (c FormatConfig) Validate() error {
	if len(c.ImageFormats) == 0 {
		return fmt.Errorf("format config: image format list is empty")
	}
	if len(c.VideoFormats) == 0 {
		return fmt.Errorf("format config: video format list is empty")
	}
	return nil
}

// Classifier maps file extensions to media types using a FormatConfig.
type Classifier struct {
	images map[string]bool
	videos map[string]bool
}

// NewClassifier builds a Classifier from a validated FormatConfig.
func NewClassifier(cfg FormatConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		images: make(map[string]bool, len(cfg.ImageFormats)),
		videos: make(map[string]bool, len(cfg.VideoFormats)),
	}
	for _, ext := range cfg.ImageFormats {
		c.images[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.VideoFormats {
		c.videos[strings.ToLower(ext)] = true
	}
	return c, nil
}

// Classify returns the media type for a file path. The second return value is
// false for extensions in neither allow-list; such files are excluded from
// scan results, not reported as errors.
func (c *Classifier) Classify(path string) (MediaType, bool) {
	ext := NormalizeExt(path)
	if ext == "" {
		return "", false
	}
	if c.images[ext] {
		return MediaTypeImage, true
	}
	if c.videos[ext] {
		return MediaTypeVideo, true
	}
	return "", false
}

// NormalizeExt extracts the extension from a path, lowercased and without the
// leading dot. Returns "" for paths with no extension.
func NormalizeExt(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsRawFormat reports whether the extension needs the vips decode path
// (HEIC/HEIF and camera RAW formats).
func IsRawFormat(ext string) bool {
	return RawFormats[strings.ToLower(ext)]
}
