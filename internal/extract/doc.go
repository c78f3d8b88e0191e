// Package extract turns one input path into per-track audio files.
//
// Classify picks the entry strategy from the input's extension (sniffing the
// NER5 footer for unfamiliar ones). From there a pure transition table decides
// what happens after each step: direct container parsing, conversion to a
// plain image, mounting, volume inspection, ripping track descriptors, legacy
// high-density extraction, cue-sheet cutting, or silence splitting. The
// Extractor only executes the steps; every fallback decision lives in
// transition and is table-tested.
//
// Cleanup is unconditional. A converted image is deleted and a mounted volume
// released on every exit path, including cancellation and panics.
package extract
