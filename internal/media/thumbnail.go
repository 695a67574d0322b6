package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metrics"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// ThumbnailSet holds the canonical cache paths for every size class of one
// source file.
type ThumbnailSet struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
}

// Thumbnailer renders orientation-corrected JPEG thumbnails into a Cache.
// One source decode feeds every stale size class.
type Thumbnailer struct {
	cache *Cache
}

func NewThumbnailer(cache *Cache) *Thumbnailer {
	return &Thumbnailer{cache: cache}
}

// Cache returns the underlying thumbnail store.
func (t *Thumbnailer) Cache() *Cache {
	return t.cache
}

// GenerateImage produces thumbnails for a still image, reusing cached
// entries that are newer than the source. Concurrent calls for the same
// checksum coalesce: only one decodes, the rest observe its output.
func (t *Thumbnailer) GenerateImage(path, checksum string, sourceModTime time.Time) (ThumbnailSet, error) {
	start := time.Now()
	err := t.cache.WithKey(checksum, func() error {
		stale := t.staleSizes(checksum, sourceModTime)
		if len(stale) == 0 {
			logging.Debug("thumbnail cache hit for %s", path)
			return nil
		}

		img, err := t.decodeSource(path)
		if err != nil {
			return err
		}
		return t.render(img, checksum, stale)
	})
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("image", "error").Inc()
		return ThumbnailSet{}, fmt.Errorf("thumbnails for %s: %w", path, err)
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("image", "success").Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	return t.Paths(checksum), nil
}

// Paths returns the canonical cache locations for a checksum without
// touching the filesystem.
func (t *Thumbnailer) Paths(checksum string) ThumbnailSet {
	return ThumbnailSet{
		Small:  t.cache.Path(checksum, SizeSmall),
		Medium: t.cache.Path(checksum, SizeMedium),
	}
}

// staleSizes returns the size classes whose cached entries are missing or
// outdated, updating the hit/miss counters.
func (t *Thumbnailer) staleSizes(checksum string, sourceModTime time.Time) []SizeClass {
	var stale []SizeClass
	for _, size := range SizeClasses {
		if t.cache.NeedsRegenerate(checksum, size, sourceModTime) {
			metrics.ThumbnailCacheMisses.Inc()
			stale = append(stale, size)
		} else {
			metrics.ThumbnailCacheHits.Inc()
		}
	}
	return stale
}

// render resizes and stores one decoded image for each stale size class.
func (t *Thumbnailer) render(img image.Image, checksum string, sizes []SizeClass) error {
	for _, size := range sizes {
		thumb := resizeToWidth(img, size.Width())

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode %s thumbnail: %w", size, ErrDecodeFailure)
		}
		if _, err := t.cache.Store(checksum, size, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// decodeSource loads and orients an image file. RAW and HEIC formats go
// through libvips, which shrinks at decode time and auto-orients;
// everything else uses the registered stdlib and x/image decoders followed
// by an explicit EXIF orientation transform.
func (t *Thumbnailer) decodeSource(path string) (image.Image, error) {
	ext := mediatypes.NormalizeExt(path)
	if mediatypes.IsRawFormat(ext) {
		return LoadImageWithVips(path, SizeMedium.Width())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrUnreadableFile)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, ErrDecodeFailure)
	}
	logging.Debug("decoded %s as %s", path, format)

	return applyOrientation(img, readOrientation(path)), nil
}

// readOrientation returns the EXIF orientation (1-8), defaulting to 1 when
// the file carries none.
func readOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// applyOrientation normalizes pixels so the rendered thumbnail is upright.
// The EXIF values describe the transform the camera recorded; imaging's
// rotations are counter-clockwise, hence Rotate270 for orientation 6.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// resizeToWidth scales to an exact target width, height rounded to preserve
// the aspect ratio. Sources narrower than the target are upscaled so every
// cached entry has a predictable width.
func resizeToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return img
	}
	height := int(math.Round(float64(srcH) * float64(width) / float64(srcW)))
	if height < 1 {
		height = 1
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
