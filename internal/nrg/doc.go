// Package nrg decodes Nero NER5 disc images.
//
// A NER5 image is raw disc data followed by a chain of chunks and a 12-byte
// footer that points at the chain. The package reads the footer, walks the
// chain with an explicit bounded iterator, and turns the CUEX index chunk into
// sector-based track boundaries that can be streamed straight out of the
// image. Anything that is not a NER5 image is reported as ErrUnsupported so
// callers can fall back to other strategies.
package nrg
