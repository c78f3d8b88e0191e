// Package sacd drives sacd_extract, the legacy extractor for high-density
// disc images that cannot be mounted or parsed directly.
package sacd
