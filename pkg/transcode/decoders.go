package transcode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// asReadSeeker buffers r into memory if it isn't already seekable: the
// wav/flac/ogg decoders below all need to seek.
func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// normalizeToInt16 rescales a bit-depth-native sample to the int16 range
// pkg/codec operates on. 16-bit samples are returned unchanged.
func normalizeToInt16(s int, bitDepth int) int16 {
	if bitDepth == 16 {
		return int16(s)
	}

	var maxVal float64
	switch bitDepth {
	case 8:
		maxVal = 128
	case 16:
		maxVal = 32768
	case 24:
		maxVal = 8388608
	case 32:
		maxVal = 2147483648
	default:
		maxVal = 32768
	}

	normalized := float64(s) / maxVal * 32767
	if normalized > 32767 {
		normalized = 32767
	} else if normalized < -32768 {
		normalized = -32768
	}
	return int16(normalized)
}

func decodeWAV(r io.Reader) ([]int16, WAVInfo, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("read WAV data: %w", err)
	}

	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, WAVInfo{}, fmt.Errorf("invalid WAV file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, WAVInfo{}, fmt.Errorf("read WAV format: %w", err)
	}

	info := WAVInfo{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   16,
	}
	bitDepth := int(decoder.BitDepth)

	const chunkSize = 4096
	tmpBuf := &audio.IntBuffer{
		Data:   make([]int, chunkSize),
		Format: &audio.Format{SampleRate: info.SampleRate, NumChannels: info.Channels},
	}

	var raw []int
	for {
		n, err := decoder.PCMBuffer(tmpBuf)
		if err != nil {
			return nil, WAVInfo{}, fmt.Errorf("decode WAV PCM: %w", err)
		}
		if n == 0 {
			break
		}
		raw = append(raw, tmpBuf.Data[:n]...)
	}

	samples := make([]int16, len(raw))
	for i, s := range raw {
		samples[i] = normalizeToInt16(s, bitDepth)
	}
	return samples, info, nil
}

func decodeFLAC(r io.Reader) ([]int16, WAVInfo, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("read FLAC data: %w", err)
	}

	stream, err := flac.New(rs)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("open FLAC stream: %w", err)
	}
	defer stream.Close()

	streamInfo := stream.Info
	info := WAVInfo{
		SampleRate: int(streamInfo.SampleRate),
		Channels:   int(streamInfo.NChannels),
		BitDepth:   16,
	}
	bitDepth := int(streamInfo.BitsPerSample)

	samples := make([]int16, 0, int(streamInfo.NSamples)*info.Channels)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, WAVInfo{}, fmt.Errorf("parse FLAC frame: %w", err)
		}

		nSamples := len(frame.Subframes[0].Samples)
		for i := 0; i < nSamples; i++ {
			for ch := 0; ch < info.Channels; ch++ {
				samples = append(samples, normalizeToInt16(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return samples, info, nil
}

func decodeOGG(r io.Reader) ([]int16, WAVInfo, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("read OGG data: %w", err)
	}

	decoder, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("create OGG decoder: %w", err)
	}

	info := WAVInfo{
		SampleRate: decoder.SampleRate(),
		Channels:   decoder.Channels(),
		BitDepth:   16,
	}

	var floatSamples []float32
	buf := make([]float32, 4096)
	for {
		n, err := decoder.Read(buf)
		if err != nil && err != io.EOF {
			return nil, WAVInfo{}, fmt.Errorf("decode OGG: %w", err)
		}
		if n == 0 {
			break
		}
		floatSamples = append(floatSamples, buf[:n]...)
	}

	samples := make([]int16, len(floatSamples))
	for i, f := range floatSamples {
		s := f * 32767
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		samples[i] = int16(s)
	}
	return samples, info, nil
}

func decodeMP3(r io.Reader) ([]int16, WAVInfo, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("create MP3 decoder: %w", err)
	}

	info := WAVInfo{
		SampleRate: decoder.SampleRate(),
		Channels:   2, // go-mp3 always outputs stereo
		BitDepth:   16,
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("decode MP3: %w", err)
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, info, nil
}

// AudioInfo is a diagnostic summary of a foreign-format file, reported by
// the CLI's info subcommand without decoding the whole stream into samples.
type AudioInfo struct {
	Format     Format
	Duration   float64
	SampleRate int
	Channels   int
	BitDepth   int
}

// GetInfo inspects a foreign-format stream and reports its audio
// parameters without fully decoding it to samples.
func GetInfo(r io.Reader, format Format) (*AudioInfo, error) {
	switch format {
	case FormatWAV:
		return getWAVInfo(r)
	case FormatFLAC:
		return getFLACInfo(r)
	case FormatOGG:
		return getOGGInfo(r)
	case FormatMP3:
		return getMP3Info(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func getWAVInfo(r io.Reader) (*AudioInfo, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	dur, err := decoder.Duration()
	if err != nil {
		dur = 0
	}
	return &AudioInfo{
		Format:     FormatWAV,
		Duration:   dur.Seconds(),
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}, nil
}

func getFLACInfo(r io.Reader) (*AudioInfo, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}
	stream, err := flac.New(rs)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info
	return &AudioInfo{
		Format:     FormatFLAC,
		Duration:   float64(info.NSamples) / float64(info.SampleRate),
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}, nil
}

func getOGGInfo(r io.Reader) (*AudioInfo, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}
	decoder, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, err
	}
	return &AudioInfo{
		Format:     FormatOGG,
		Duration:   decoder.Length().Seconds(),
		SampleRate: decoder.SampleRate(),
		Channels:   decoder.Channels(),
		BitDepth:   16,
	}, nil
}

func getMP3Info(r io.Reader) (*AudioInfo, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	length := decoder.Length()
	sampleRate := decoder.SampleRate()
	return &AudioInfo{
		Format:     FormatMP3,
		Duration:   float64(length) / float64(sampleRate) / 4, // 4 bytes/sample (stereo int16)
		SampleRate: sampleRate,
		Channels:   2,
		BitDepth:   16,
	}, nil
}
