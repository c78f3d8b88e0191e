// Package config loads, normalizes, and validates autosplit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUTOSPLIT_FFMPEG. The Config type centralizes every knob the CLI and the
// extraction pipeline need so tool locations, output format, and silence
// thresholds are decided in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
