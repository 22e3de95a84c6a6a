package codec

import "io"

// Stats summarises one Encode or Decode pass. It is computed by the
// Segmenter alongside the hot path but is itself purely informational —
// callers (the CLI, the HTTP API) are responsible for reporting it.
type Stats struct {
	EncodedRuns    int
	LiteralRuns    int
	EncodedSamples int
	LiteralSamples int
	OutputBytes    int // body bytes only, excludes the header

	// PackerUsage counts how many Encoded runs used each packer size.
	PackerUsage map[int]int
}

func newStats() Stats {
	return Stats{PackerUsage: make(map[int]int)}
}

// TotalSamples is the number of samples this pass covered.
func (s Stats) TotalSamples() int {
	return s.EncodedSamples + s.LiteralSamples
}

// Encode copies the opaque HeaderSize-byte container header verbatim from
// r to w, then runs the codec over the remaining samples in r, writing the
// compressed block sequence to w. It is the top-level entry point for
// compressing a whole stream.
func Encode(r io.Reader, w io.Writer) (Stats, error) {
	if err := copyHeader(r, w); err != nil {
		return newStats(), err
	}

	s := NewSegmenter(CacheCapacity)
	return s.Encode(r, w)
}

// Decode copies the opaque HeaderSize-byte container header verbatim from
// r to w, then reconstructs the sample stream from r's compressed block
// sequence, writing raw little-endian samples to w.
func Decode(r io.Reader, w io.Writer) (Stats, error) {
	if err := copyHeader(r, w); err != nil {
		return newStats(), err
	}

	s := NewSegmenter(CacheCapacity)
	return s.Decode(r, w)
}

// copyHeader passes the leading HeaderSize bytes through unexamined. A
// source shorter than HeaderSize is copied as far as it goes; this package
// never interprets or validates the header's contents.
func copyHeader(r io.Reader, w io.Writer) error {
	_, err := io.CopyN(w, r, HeaderSize)
	if err == io.EOF {
		return nil
	}
	return err
}
