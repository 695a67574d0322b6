// Package metadata extracts per-file facts from media: dimensions, EXIF
// camera data and GPS for images, and stream info for videos. Dimensions
// are the only mandatory field; everything else degrades to an empty value
// with the capture date falling back to the file modification time.
package metadata
