package flacenc

import (
	"io"
)

// EncodeFromInt16 encodes interleaved 16-bit PCM samples to FLAC. This is
// the only encoding surface pkg/transcode needs: the sample-cache codec
// always decompresses to 16-bit samples, so there is no other bit depth to
// support.
func EncodeFromInt16(w io.Writer, samples []int16, sampleRate, channels int) error {
	return NewEncoder(sampleRate, channels).Encode(w, samples)
}
