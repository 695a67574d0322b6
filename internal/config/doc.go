// Package config loads the YAML ingest configuration and applies defaults
// for anything unset. Only library.root is mandatory.
package config
