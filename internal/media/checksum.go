package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Checksum returns the lowercase hex SHA-256 of the file's contents. It is
// the cache identity for thumbnails: identical bytes map to identical cache
// entries regardless of path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, ErrUnreadableFile)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, ErrUnreadableFile)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
