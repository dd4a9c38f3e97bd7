package jpegli

import "errors"

var (
	// ErrConfiguration reports mutually inconsistent encoder settings,
	// detected at session creation or at the start of an encode.
	ErrConfiguration = errors.New("jpegli: invalid configuration")

	// ErrFormat reports malformed embedded metadata such as a corrupt
	// chunked ICC marker chain. It is recoverable: the encoder falls back
	// to sRGB and records a warning.
	ErrFormat = errors.New("jpegli: malformed metadata")

	// ErrResource reports a failure of the output destination.
	ErrResource = errors.New("jpegli: destination failure")

	// ErrInternal reports a broken encoder invariant, e.g. an optimized
	// Huffman code exceeding 16 bits. It indicates a bug.
	ErrInternal = errors.New("jpegli: internal invariant violated")

	// ErrTruncatedInput reports a Finish call before all declared
	// scanlines were received.
	ErrTruncatedInput = errors.New("jpegli: not all scanlines received")

	// ErrImageTooLarge reports dimensions exceeding the 16-bit frame
	// header fields.
	ErrImageTooLarge = errors.New("jpegli: image dimensions exceed limit")
)
