package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the codec package.
var (
	// ErrTruncatedStream means the byte source ended mid-marker,
	// mid-literal, or mid-packed-group.
	ErrTruncatedStream = errors.New("codec: truncated stream")

	// ErrUnsupportedPackerTag means a marker named a packer tag this
	// decoder doesn't recognise, or EncodeMarker was given a packer width
	// other than 4, 6, or 7.
	ErrUnsupportedPackerTag = errors.New("codec: unsupported packer tag")

	// ErrCacheOutOfRange means a decoded index pointed past the current
	// cache length.
	ErrCacheOutOfRange = errors.New("codec: cache index out of range")

	// ErrCountTooLarge means the encoder was asked to emit a run longer
	// than MaxEncodedRunLength. The Segmenter never constructs such a run;
	// seeing this indicates a programmer error upstream.
	ErrCountTooLarge = errors.New("codec: marker count too large")

	// ErrInvariantViolation means the encoder computed a cache index that
	// exceeds the chosen packer's max representable index, or was asked to
	// emit a run of count <= 0 (which would collide with the end-of-stream
	// word). The Segmenter guarantees neither can happen; seeing it
	// indicates a programmer error upstream.
	ErrInvariantViolation = errors.New("codec: invariant violation")

	// ErrUnsupportedSize means Pack/Unpack was asked for a bit width other
	// than 4, 6, or 7.
	ErrUnsupportedSize = errors.New("codec: unsupported packer size")
)

// CodecError wraps a sentinel with the operation that produced it.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
