// Package rawstream pumps a byte range of linear PCM from a container into an
// external encoder's standard input.
//
// The pump reads through an io.SectionReader in fixed-size chunks so memory
// stays bounded regardless of track length. A short read from the source
// ends the stream early and still lets the encoder finish on what it
// received. A broken pipe during writes means the encoder exited early; the
// pump stops and the encoder's exit status decides the outcome.
package rawstream
