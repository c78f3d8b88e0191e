// Package ffmpeg wraps the ffmpeg CLI used to encode, cut and analyse audio.
//
// Every invocation goes through a services.Executor so tests can substitute
// recorded runs. The client owns the output format settings; callers only
// pass paths and time ranges.
package ffmpeg
