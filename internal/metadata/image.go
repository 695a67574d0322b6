package metadata

import (
	"fmt"
	"image"
	"os"

	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	// Image format decoders for dimension probing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func init() {
	// Maker-note parsers improve tag coverage for common camera vendors.
	exif.RegisterParsers(mknote.All...)
}

// ReadImage extracts metadata from a still image. Dimensions are mandatory:
// if they cannot be determined from either the pixel data or the EXIF block,
// the call fails. Every other field degrades individually: camera fields
// stay empty and the capture date falls back to the file's modification
// time. GPS coordinates are validated against [-90,90]/[-180,180]; a parsed
// value outside those ranges is a decode error, not metadata.
func ReadImage(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, media.ErrUnreadableFile)
	}

	m := &Metadata{
		Path:         path,
		MediaType:    mediatypes.MediaTypeImage,
		Orientation:  1,
		FileSize:     info.Size(),
		FileModified: info.ModTime(),
	}

	x := decodeEXIF(path)
	if x != nil {
		if err := applyEXIF(m, x, path); err != nil {
			return nil, err
		}
	}

	if m.CaptureDate.IsZero() {
		m.CaptureDate = m.FileModified
	}

	width, height, err := pixelDimensions(path)
	if err == nil {
		m.Width, m.Height = width, height
	} else if m.Width == 0 || m.Height == 0 {
		// No pixel-level dimensions and nothing usable in EXIF.
		return nil, fmt.Errorf("dimensions for %s: %w", path, media.ErrDecodeFailure)
	}

	// Report display dimensions: orientations 5-8 rotate by 90 degrees, so
	// stored width/height are swapped.
	if m.Orientation >= 5 && m.Orientation <= 8 {
		m.Width, m.Height = m.Height, m.Width
	}

	return m, nil
}

// decodeEXIF returns the parsed EXIF block, or nil when the file carries
// none. Missing EXIF is normal, not an error.
func decodeEXIF(path string) *exif.Exif {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		logging.Debug("no EXIF data in %s: %v", path, err)
		return nil
	}
	return x
}

// applyEXIF copies the tags the pipeline cares about onto m. Unparsable
// fields are skipped; out-of-range GPS fails the call.
func applyEXIF(m *Metadata, x *exif.Exif, path string) error {
	if tm, err := x.DateTime(); err == nil {
		m.CaptureDate = tm
	}

	if tag, err := x.Get(exif.Make); err == nil {
		m.CameraMake = tagString(tag)
	}
	if tag, err := x.Get(exif.Model); err == nil {
		m.CameraModel = tagString(tag)
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			m.Orientation = v
		}
	}

	if lat, lon, err := x.LatLong(); err == nil {
		if err := ValidateGPS(lat, lon); err != nil {
			return fmt.Errorf("gps in %s: %w", path, err)
		}
		m.GPSLatitude = &lat
		m.GPSLongitude = &lon
	}

	if m.Width == 0 {
		m.Width = exifDimension(x, exif.PixelXDimension, exif.ImageWidth)
	}
	if m.Height == 0 {
		m.Height = exifDimension(x, exif.PixelYDimension, exif.ImageLength)
	}

	return nil
}

// ValidateGPS checks decoded coordinates against the valid decimal-degree
// ranges. Values outside them indicate a corrupt EXIF block.
func ValidateGPS(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]: %w", lat, media.ErrDecodeFailure)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]: %w", lon, media.ErrDecodeFailure)
	}
	return nil
}

// pixelDimensions reads the stored dimensions from the image header without
// decoding pixel data.
func pixelDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func exifDimension(x *exif.Exif, tags ...exif.FieldName) int {
	for _, name := range tags {
		if tag, err := x.Get(name); err == nil {
			if v, err := tag.Int(0); err == nil && v > 0 {
				return v
			}
		}
	}
	return 0
}

func tagString(tag *tiff.Tag) string {
	if tag == nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}
