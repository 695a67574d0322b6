package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metadata"
	"media-ingest/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Entry is one cataloged media file: its metadata plus thumbnail locations.
type Entry struct {
	ID         int64
	Metadata   metadata.Metadata
	Checksum   string
	Thumbnails media.ThumbnailSet
	// ThumbnailError is set when thumbnail generation failed and the entry
	// carries placeholder paths.
	ThumbnailError string
	IngestedAt     time.Time
}

// Catalog persists ingest results in SQLite.
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the catalog database. WAL mode keeps
// concurrent ingest writers from tripping over readers.
func Open(ctx context.Context, dbPath string) (*Catalog, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to catalog: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{db: db, dbPath: dbPath}
	if err := c.initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}

	logging.Info("Catalog opened at %s", dbPath)
	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		media_type TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		file_modified INTEGER NOT NULL,
		capture_date INTEGER NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		orientation INTEGER NOT NULL DEFAULT 1,
		camera_make TEXT NOT NULL DEFAULT '',
		camera_model TEXT NOT NULL DEFAULT '',
		gps_latitude REAL,
		gps_longitude REAL,
		duration_seconds REAL NOT NULL DEFAULT 0,
		video_codec TEXT NOT NULL DEFAULT '',
		thumb_small TEXT NOT NULL DEFAULT '',
		thumb_medium TEXT NOT NULL DEFAULT '',
		thumb_error TEXT NOT NULL DEFAULT '',
		ingested_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_media_type ON media(media_type);
	CREATE INDEX IF NOT EXISTS idx_media_checksum ON media(checksum);
	CREATE INDEX IF NOT EXISTS idx_media_capture_date ON media(capture_date);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Upsert inserts or replaces the entry for one path. Re-ingesting a path
// overwrites its previous row; identity is the path, not the checksum, so
// two copies of the same bytes remain distinct entries.
func (c *Catalog) Upsert(ctx context.Context, e *Entry) error {
	query := `
	INSERT INTO media (
		path, media_type, checksum, file_size, file_modified, capture_date,
		width, height, orientation, camera_make, camera_model,
		gps_latitude, gps_longitude, duration_seconds, video_codec,
		thumb_small, thumb_medium, thumb_error, ingested_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		media_type = excluded.media_type,
		checksum = excluded.checksum,
		file_size = excluded.file_size,
		file_modified = excluded.file_modified,
		capture_date = excluded.capture_date,
		width = excluded.width,
		height = excluded.height,
		orientation = excluded.orientation,
		camera_make = excluded.camera_make,
		camera_model = excluded.camera_model,
		gps_latitude = excluded.gps_latitude,
		gps_longitude = excluded.gps_longitude,
		duration_seconds = excluded.duration_seconds,
		video_codec = excluded.video_codec,
		thumb_small = excluded.thumb_small,
		thumb_medium = excluded.thumb_medium,
		thumb_error = excluded.thumb_error,
		ingested_at = strftime('%s', 'now')
	`

	m := &e.Metadata
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := c.db.ExecContext(ctx, query,
		m.Path, string(m.MediaType), e.Checksum, m.FileSize,
		m.FileModified.Unix(), m.CaptureDate.Unix(),
		m.Width, m.Height, m.Orientation, m.CameraMake, m.CameraModel,
		m.GPSLatitude, m.GPSLongitude, m.DurationSeconds, m.VideoCodec,
		e.Thumbnails.Small, e.Thumbnails.Medium, e.ThumbnailError,
	)
	if err != nil {
		metrics.CatalogWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("upsert %s: %w", m.Path, err)
	}
	metrics.CatalogWritesTotal.WithLabelValues("success").Inc()
	return nil
}

// GetByPath returns the entry for a path, or sql.ErrNoRows.
func (c *Catalog) GetByPath(ctx context.Context, path string) (*Entry, error) {
	query := `
	SELECT id, path, media_type, checksum, file_size, file_modified, capture_date,
		width, height, orientation, camera_make, camera_model,
		gps_latitude, gps_longitude, duration_seconds, video_codec,
		thumb_small, thumb_medium, thumb_error, ingested_at
	FROM media WHERE path = ?
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e Entry
	var mediaType string
	var fileModified, captureDate, ingestedAt int64
	err := c.db.QueryRowContext(ctx, query, path).Scan(
		&e.ID, &e.Metadata.Path, &mediaType, &e.Checksum,
		&e.Metadata.FileSize, &fileModified, &captureDate,
		&e.Metadata.Width, &e.Metadata.Height, &e.Metadata.Orientation,
		&e.Metadata.CameraMake, &e.Metadata.CameraModel,
		&e.Metadata.GPSLatitude, &e.Metadata.GPSLongitude,
		&e.Metadata.DurationSeconds, &e.Metadata.VideoCodec,
		&e.Thumbnails.Small, &e.Thumbnails.Medium, &e.ThumbnailError,
		&ingestedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Metadata.MediaType = mediatypes.MediaType(mediaType)
	e.Metadata.FileModified = time.Unix(fileModified, 0)
	e.Metadata.CaptureDate = time.Unix(captureDate, 0)
	e.IngestedAt = time.Unix(ingestedAt, 0)
	return &e, nil
}

// Count returns the number of cataloged entries, optionally filtered by
// media type ("" counts everything).
func (c *Catalog) Count(ctx context.Context, mediaType string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	var err error
	if mediaType == "" {
		err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&n)
	} else {
		err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media WHERE media_type = ?", mediaType).Scan(&n)
	}
	return n, err
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
