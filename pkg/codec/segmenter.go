package codec

import (
	"encoding/binary"
	"io"
)

// packerSizeOrder is the order candidate packer sizes are tried in: when two
// sizes would emit the same byte count, the smaller size wins because it is
// tried first.
var packerSizeOrder = []int{4, 6, 7}

// Segmenter drives the encoder's run-segmentation state machine and the
// decoder's marker-driven reconstruction, sharing a single Cache that must
// evolve identically on both sides.
type Segmenter struct {
	cache *Cache
}

// NewSegmenter creates a Segmenter backed by a fresh Cache of the given
// capacity.
func NewSegmenter(capacity int) *Segmenter {
	return &Segmenter{cache: NewCache(capacity)}
}

// readSamples fills buf with up to len(buf) little-endian samples from r,
// stopping early (with n < len(buf)) at a clean EOF. Any other read error,
// including a stream that ends mid-sample, is returned as-is.
func readSamples(r io.Reader, buf []Sample) (int, error) {
	var b [SampleSize]byte
	for i := range buf {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			if err == io.EOF {
				return i, nil
			}
			return i, err
		}
		buf[i] = binary.LittleEndian.Uint16(b[:])
	}
	return len(buf), nil
}

func writeSample(w io.Writer, s Sample) error {
	var b [SampleSize]byte
	binary.LittleEndian.PutUint16(b[:], s)
	_, err := w.Write(b[:])
	return err
}

func writeMarkerWord(w io.Writer, word uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], word)
	_, err := w.Write(b[:])
	return err
}

// Encode reads a whole stream of raw little-endian samples from r and
// writes the encoded block sequence (markers + payloads, terminated by a
// zero marker word) to w. It returns statistics about the runs it emitted.
func (s *Segmenter) Encode(r io.Reader, w io.Writer) (Stats, error) {
	stats := newStats()
	buf := make([]Sample, MaxEncodedRunLength)

	for {
		n, err := readSamples(r, buf)
		if err != nil {
			return stats, err
		}
		if n == 0 {
			break
		}
		if err := s.drainChunk(buf[:n], w, &stats); err != nil {
			return stats, err
		}
	}

	if err := writeMarkerWord(w, 0); err != nil {
		return stats, err
	}
	return stats, nil
}

// drainChunk implements the per-step encode decision loop over a single
// in-memory chunk (at most MaxEncodedRunLength samples): prefer the cheapest
// Encoded run, fall back to a Literal run of misses, and failing that emit a
// short Literal run just to keep making progress.
func (s *Segmenter) drainChunk(chunk []Sample, w io.Writer, stats *Stats) error {
	for len(chunk) > 0 {
		bestSize, bestCount := s.hitPrefixScan(chunk)
		if bestCount > 0 {
			if err := s.emitEncodedRun(chunk[:bestCount], bestSize, w, stats); err != nil {
				return err
			}
			chunk = chunk[bestCount:]
			continue
		}

		missCount := s.missPrefixScan(chunk)
		if missCount > 0 {
			if err := s.emitLiteralRun(chunk[:missCount], w, stats); err != nil {
				return err
			}
			chunk = chunk[missCount:]
			continue
		}

		// Forward-progress fallback: next sample is a cache hit but no
		// packer could take it (e.g. its index is too large for every
		// supported size). Emit a short literal run anyway.
		fallback := Packers[7].UnpackedLen
		if fallback > len(chunk) {
			fallback = len(chunk)
		}
		if err := s.emitLiteralRun(chunk[:fallback], w, stats); err != nil {
			return err
		}
		chunk = chunk[fallback:]
	}
	return nil
}

// hitPrefixScan finds, for each candidate packer size, the longest prefix
// of chunk whose every sample's cache index fits the size, truncated to a
// multiple of the packer's unpacked group length, then picks the size that
// minimises emitted payload bytes (ties broken by trying sizes in
// increasing order). It returns (0, 0) if no size yields a positive count.
func (s *Segmenter) hitPrefixScan(chunk []Sample) (bestSize, bestCount int) {
	bestBytes := -1

	for _, size := range packerSizeOrder {
		spec := Packers[size]
		k := 0
		for k < len(chunk) {
			idx := s.cache.Index(chunk[k])
			if idx < 0 || idx > spec.MaxKeyIndex {
				break
			}
			k++
		}
		k -= k % spec.UnpackedLen
		if k == 0 {
			continue
		}

		b := (k / spec.UnpackedLen) * spec.PackedLen
		if bestBytes == -1 || b < bestBytes {
			bestBytes = b
			bestSize = size
			bestCount = k
		}
	}

	return bestSize, bestCount
}

// missPrefixScan returns the longest prefix of chunk made entirely of
// cache misses, capped at MaxLiteralRunLength.
func (s *Segmenter) missPrefixScan(chunk []Sample) int {
	n := 0
	for n < len(chunk) && s.cache.Index(chunk[n]) < 0 {
		n++
	}
	if n > MaxLiteralRunLength {
		n = MaxLiteralRunLength
	}
	return n
}

// emitEncodedRun writes an Encoded marker for run (already verified to be
// a multiple of the packer's unpacked length) followed by its packed
// payload, updating stats and the Cache as it goes.
func (s *Segmenter) emitEncodedRun(run []Sample, size int, w io.Writer, stats *Stats) error {
	spec := Packers[size]

	word, err := EncodeMarker(Marker{Encoded: true, Count: len(run), PackerBit: size})
	if err != nil {
		return err
	}
	if err := writeMarkerWord(w, word); err != nil {
		return err
	}

	indices := make([]byte, spec.UnpackedLen)
	for i := 0; i < len(run); i += spec.UnpackedLen {
		group := run[i : i+spec.UnpackedLen]

		for j, sample := range group {
			idx := s.cache.Index(sample)
			if idx < 0 || idx > spec.MaxKeyIndex {
				return &CodecError{Op: "emit_encoded_run", Err: ErrInvariantViolation}
			}
			indices[j] = byte(idx)
		}

		packed, err := Pack(indices, size)
		if err != nil {
			return err
		}
		if _, err := w.Write(packed); err != nil {
			return err
		}

		for _, sample := range group {
			s.cache.Add(sample)
		}
	}

	stats.EncodedRuns++
	stats.PackerUsage[size]++
	stats.EncodedSamples += len(run)
	stats.OutputBytes += 2 + (len(run)/spec.UnpackedLen)*spec.PackedLen
	return nil
}

// emitLiteralRun writes a Literal marker followed by the run's raw
// samples, updating stats and the Cache as it goes.
func (s *Segmenter) emitLiteralRun(run []Sample, w io.Writer, stats *Stats) error {
	word, err := EncodeMarker(Marker{Encoded: false, Count: len(run)})
	if err != nil {
		return err
	}
	if err := writeMarkerWord(w, word); err != nil {
		return err
	}

	for _, sample := range run {
		if err := writeSample(w, sample); err != nil {
			return err
		}
	}
	for _, sample := range run {
		s.cache.Add(sample)
	}

	stats.LiteralRuns++
	stats.LiteralSamples += len(run)
	stats.OutputBytes += 2 + len(run)*SampleSize
	return nil
}

// Decode reads the encoded block sequence from r (terminated by a zero
// marker word) and writes the reconstructed samples, little-endian, to w.
func (s *Segmenter) Decode(r io.Reader, w io.Writer) (Stats, error) {
	stats := newStats()

	for {
		var markerBytes [2]byte
		if _, err := io.ReadFull(r, markerBytes[:]); err != nil {
			if err == io.EOF {
				return stats, nil
			}
			return stats, &CodecError{Op: "decode", Err: ErrTruncatedStream}
		}
		word := binary.LittleEndian.Uint16(markerBytes[:])

		marker, ok, err := DecodeMarker(word)
		if err != nil {
			return stats, err
		}
		if !ok {
			return stats, nil
		}

		if marker.Encoded {
			if err := s.decodeEncodedRun(marker, r, w, &stats); err != nil {
				return stats, err
			}
		} else {
			if err := s.decodeLiteralRun(marker, r, w, &stats); err != nil {
				return stats, err
			}
		}
	}
}

func (s *Segmenter) decodeEncodedRun(marker Marker, r io.Reader, w io.Writer, stats *Stats) error {
	spec, ok := Packers[marker.PackerBit]
	if !ok {
		return &CodecError{Op: "decode_encoded_run", Err: ErrUnsupportedPackerTag}
	}

	packed := make([]byte, spec.PackedLen)
	samples := make([]Sample, spec.UnpackedLen)

	for done := 0; done < marker.Count; done += spec.UnpackedLen {
		if _, err := io.ReadFull(r, packed); err != nil {
			return &CodecError{Op: "decode_encoded_run", Err: ErrTruncatedStream}
		}

		indices, err := Unpack(packed, marker.PackerBit)
		if err != nil {
			return err
		}

		for j, idx := range indices {
			if int(idx) >= s.cache.Len() {
				return &CodecError{Op: "decode_encoded_run", Err: ErrCacheOutOfRange}
			}
			samples[j] = s.cache.At(int(idx))
		}

		for _, sample := range samples {
			if err := writeSample(w, sample); err != nil {
				return err
			}
		}
		for _, sample := range samples {
			s.cache.Add(sample)
		}
	}

	stats.EncodedRuns++
	stats.PackerUsage[marker.PackerBit]++
	stats.EncodedSamples += marker.Count
	stats.OutputBytes += 2 + (marker.Count/spec.UnpackedLen)*spec.PackedLen
	return nil
}

func (s *Segmenter) decodeLiteralRun(marker Marker, r io.Reader, w io.Writer, stats *Stats) error {
	samples := make([]Sample, marker.Count)
	var b [SampleSize]byte
	for i := range samples {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return &CodecError{Op: "decode_literal_run", Err: ErrTruncatedStream}
		}
		samples[i] = binary.LittleEndian.Uint16(b[:])
		if err := writeSample(w, samples[i]); err != nil {
			return err
		}
	}
	for _, sample := range samples {
		s.cache.Add(sample)
	}

	stats.LiteralRuns++
	stats.LiteralSamples += len(samples)
	stats.OutputBytes += 2 + len(samples)*SampleSize
	return nil
}
