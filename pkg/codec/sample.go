// Package codec implements a lossless codec for streams of 16-bit audio
// samples. It maintains a frequency-ordered recency cache synchronised
// between encoder and decoder; samples found near the front of the cache
// are re-emitted as short bit-packed indices, everything else is emitted
// literally. Segmenter.Encode and EncodeMarker document the wire format.
package codec

// Sample is a single 16-bit audio sample, compared only for equality.
type Sample = uint16

const (
	// HeaderSize is the length, in bytes, of the opaque container header
	// copied verbatim between encoder and decoder (e.g. a standard WAV
	// header). Its contents are never interpreted by this package.
	HeaderSize = 44

	// SampleSize is the width, in bytes, of one Sample on the wire.
	SampleSize = 2

	// CacheCapacity is the fixed maximum number of entries the Cache holds.
	CacheCapacity = 1024

	// MaxEncodedRunLength is the largest run length an Encoded marker can
	// carry (13-bit magnitude field).
	MaxEncodedRunLength = 1<<13 - 1

	// MaxLiteralRunLength is the largest run length a Literal marker can
	// carry. Kept intentionally small relative to MaxEncodedRunLength so
	// the segmenter attempts to re-enter cache-hit encoding quickly.
	MaxLiteralRunLength = 1<<7 - 1
)
