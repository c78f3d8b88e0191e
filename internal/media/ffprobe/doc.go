// Package ffprobe checks written tracks. Prober.Verify rejects a file whose
// probe report has no audio stream or no positive duration.
package ffprobe
