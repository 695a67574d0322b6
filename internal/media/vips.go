package media

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync"

	"media-ingest/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips starts libvips with conservative memory settings. Call once at
// startup; RAW and HEIC decoding is unavailable until it runs.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips log messages through our logger, filtered by our level.
	var vipsLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLevel = vips.LogLevelInfo
	case logging.LevelWarn:
		vipsLevel = vips.LogLevelError
	case logging.LevelError:
		vipsLevel = vips.LogLevelCritical
	default:
		vipsLevel = vips.LogLevelWarning
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLevel)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// LoadImageWithVips decodes RAW and HEIC sources with decode-time shrinking
// to maxWidth, which keeps memory flat for very large sensor output. The
// result is already auto-oriented by vips, so no EXIF transform is applied
// afterward.
func LoadImageWithVips(path string, maxWidth int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not initialized: %w", ErrUnsupportedFormat)
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load %s: %w", filepath.Base(path), ErrDecodeFailure)
	}
	defer ref.Close()

	origWidth := ref.Width()
	origHeight := ref.Height()
	if origWidth <= 0 || origHeight <= 0 {
		return nil, fmt.Errorf("vips load %s: empty image: %w", filepath.Base(path), ErrDecodeFailure)
	}

	if origWidth > maxWidth {
		height := int(math.Round(float64(origHeight) * float64(maxWidth) / float64(origWidth)))
		if height < 1 {
			height = 1
		}
		if err := ref.Thumbnail(maxWidth, height, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips shrink %s: %w", filepath.Base(path), ErrDecodeFailure)
		}
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export %s: %w", filepath.Base(path), ErrDecodeFailure)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("decode vips output for %s: %w", filepath.Base(path), ErrDecodeFailure)
	}
	return img, nil
}
