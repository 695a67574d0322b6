package metadata

import (
	"time"

	"media-ingest/internal/mediatypes"
)

// Metadata holds the extracted facts about a single media file. Camera and
// GPS fields are only ever populated for images; duration and codec only for
// videos. CaptureDate is always populated: it falls back to FileModified
// when no embedded timestamp exists.
type Metadata struct {
	Path        string               `json:"path"`
	MediaType   mediatypes.MediaType `json:"mediaType"`
	CaptureDate time.Time            `json:"captureDate"`

	CameraMake   string   `json:"cameraMake,omitempty"`
	CameraModel  string   `json:"cameraModel,omitempty"`
	GPSLatitude  *float64 `json:"gpsLatitude,omitempty"`
	GPSLongitude *float64 `json:"gpsLongitude,omitempty"`

	// Width and Height are post-orientation display dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Orientation is the embedded EXIF orientation (1-8). It is read here
	// and applied by the thumbnailer, never during metadata extraction.
	Orientation int `json:"orientation,omitempty"`

	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	VideoCodec      string  `json:"videoCodec,omitempty"`

	FileSize     int64     `json:"fileSize"`
	FileModified time.Time `json:"fileModified"`
}
