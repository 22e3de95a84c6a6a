// Package transcode brings foreign audio formats into the sample-cache
// codec and exports the codec's raw sample stream back out for playback.
// Unlike a general format-to-format converter, the direction is fixed:
// foreign format -> interleaved int16 samples (for pkg/codec to compress),
// and interleaved int16 samples -> foreign format (for listening to a
// decompressed stream). It never resamples or rechannelizes. 16-bit PCM
// sample values pass through unchanged; other sources (8/24/32-bit PCM,
// Vorbis floats) are rescaled to 16 bits on import.
package transcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies a foreign audio container understood by this package.
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatOGG     Format = "ogg"
	FormatUnknown Format = ""
)

// ErrUnsupportedFormat means the requested Format has no Import or Export
// path.
var ErrUnsupportedFormat = errors.New("transcode: unsupported audio format")

// WAVInfo carries the handful of WAV-header fields pkg/codec's 44-byte
// container header needs to round-trip: enough to reconstruct a playable
// file on export, nothing about the audio content itself.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int // always 16 once samples have passed through Import
}

// DetectFormat guesses a Format from a file extension.
func DetectFormat(path string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "wav", "wave":
		return FormatWAV
	case "mp3":
		return FormatMP3
	case "flac":
		return FormatFLAC
	case "ogg", "oga", "ogv":
		return FormatOGG
	default:
		return FormatUnknown
	}
}

// DetectFormatFromMIME guesses a Format from a MIME content type.
func DetectFormatFromMIME(mime string) Format {
	mime = strings.ToLower(strings.Split(mime, ";")[0])
	switch mime {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return FormatWAV
	case "audio/mpeg", "audio/mp3":
		return FormatMP3
	case "audio/flac", "audio/x-flac":
		return FormatFLAC
	case "audio/ogg", "audio/vorbis", "application/ogg":
		return FormatOGG
	default:
		return FormatUnknown
	}
}

// SupportedImportFormats lists formats Import can decode.
func SupportedImportFormats() []Format {
	return []Format{FormatWAV, FormatFLAC, FormatMP3, FormatOGG}
}

// SupportedExportFormats lists formats Export can encode.
func SupportedExportFormats() []Format {
	return []Format{FormatWAV, FormatFLAC, FormatMP3}
}

// Import decodes a foreign-format stream into interleaved int16 samples,
// normalizing whatever native bit depth the source used to 16 bits: this
// is exactly the sample width pkg/codec requires and nothing more is
// asked of the source format.
func Import(format Format, r io.Reader) ([]int16, WAVInfo, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatFLAC:
		return decodeFLAC(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatOGG:
		return decodeOGG(r)
	default:
		return nil, WAVInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Export encodes interleaved int16 samples to a foreign-format stream.
func Export(format Format, w io.Writer, samples []int16, info WAVInfo) error {
	switch format {
	case FormatWAV:
		return encodeWAV(w, samples, info)
	case FormatFLAC:
		return encodeFLAC(w, samples, info)
	case FormatMP3:
		return encodeMP3(w, samples, info)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// BuildWAVHeader renders the canonical 44-byte WAV header for info and a
// data chunk of dataSize bytes. This is the container header pkg/codec
// copies verbatim, synthesised here so a non-WAV import can still produce
// a container the codec (and any WAV-aware tool) understands.
func BuildWAVHeader(info WAVInfo, dataSize int) []byte {
	header := make([]byte, 44)
	byteRate := info.SampleRate * info.Channels * (info.BitDepth / 8)
	blockAlign := info.Channels * (info.BitDepth / 8)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(info.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(info.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(info.BitDepth))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	return header
}

// ParseWAVHeader reads back the fields BuildWAVHeader wrote, recovering a
// WAVInfo from the 44-byte container header pkg/codec passed through
// unexamined.
func ParseWAVHeader(header []byte) (WAVInfo, error) {
	if len(header) < 44 {
		return WAVInfo{}, fmt.Errorf("transcode: short WAV header (%d bytes)", len(header))
	}
	return WAVInfo{
		Channels:   int(binary.LittleEndian.Uint16(header[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(header[24:28])),
		BitDepth:   int(binary.LittleEndian.Uint16(header[34:36])),
	}, nil
}
