// Package mediatypes defines the media type classification used throughout
// the ingestion pipeline: the image/video extension allow-lists, their
// default values, and the Classifier that maps file paths to media types.
package mediatypes
