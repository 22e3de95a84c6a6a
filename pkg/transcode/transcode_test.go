package transcode

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// createTestWAV builds a minimal WAV file carrying a short sine wave, the
// same generator the teacher used, for exercising Import/Export without a
// fixture file on disk.
func createTestWAV(t *testing.T, duration float64, sampleRate, channels int) []byte {
	t.Helper()

	numSamples := int(duration * float64(sampleRate) * float64(channels))
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		phase := float64(i) / float64(sampleRate) * 440.0 * 2 * 3.14159
		samples[i] = int16(16000 * sin(phase))
	}

	var buf bytes.Buffer
	buf.Write(BuildWAVHeader(WAVInfo{SampleRate: sampleRate, Channels: channels, BitDepth: 16}, numSamples*2))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

// sin is a small Taylor-series approximation, avoiding a math import for a
// one-off test fixture.
func sin(x float64) float64 {
	x = x - float64(int(x/(2*3.14159)))*2*3.14159
	if x > 3.14159 {
		x -= 2 * 3.14159
	}
	result := x
	term := x
	for i := 1; i < 10; i++ {
		term *= -x * x / float64((2*i)*(2*i+1))
		result += term
	}
	return result
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"audio.wav", FormatWAV},
		{"audio.WAVE", FormatWAV},
		{"audio.mp3", FormatMP3},
		{"audio.MP3", FormatMP3},
		{"audio.flac", FormatFLAC},
		{"audio.ogg", FormatOGG},
		{"audio.oga", FormatOGG},
		{"audio.txt", FormatUnknown},
		{"audio", FormatUnknown},
		{"/path/to/audio.wav", FormatWAV},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectFormat(tt.path); got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDetectFormatFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want Format
	}{
		{"audio/wav", FormatWAV},
		{"audio/wave", FormatWAV},
		{"audio/x-wav", FormatWAV},
		{"audio/mpeg", FormatMP3},
		{"audio/mp3", FormatMP3},
		{"audio/flac", FormatFLAC},
		{"audio/ogg", FormatOGG},
		{"text/plain", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := DetectFormatFromMIME(tt.mime); got != tt.want {
				t.Errorf("DetectFormatFromMIME(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestSupportedFormats(t *testing.T) {
	if got := SupportedImportFormats(); len(got) != 4 {
		t.Errorf("SupportedImportFormats() returned %d formats, want 4", len(got))
	}
	if got := SupportedExportFormats(); len(got) != 3 {
		t.Errorf("SupportedExportFormats() returned %d formats, want 3", len(got))
	}
}

func TestBuildAndParseWAVHeader(t *testing.T) {
	info := WAVInfo{SampleRate: 48000, Channels: 2, BitDepth: 16}
	header := BuildWAVHeader(info, 4000)
	if len(header) != 44 {
		t.Fatalf("header length = %d, want 44", len(header))
	}

	got, err := ParseWAVHeader(header)
	if err != nil {
		t.Fatalf("ParseWAVHeader() error = %v", err)
	}
	if got != info {
		t.Errorf("ParseWAVHeader() = %+v, want %+v", got, info)
	}
}

func TestParseWAVHeader_TooShort(t *testing.T) {
	if _, err := ParseWAVHeader(make([]byte, 10)); err == nil {
		t.Fatal("expected error for short header")
	}
}

func TestImportWAV_RoundTripsSamples(t *testing.T) {
	wavData := createTestWAV(t, 0.05, 44100, 2)

	samples, info, err := Import(FormatWAV, bytes.NewReader(wavData))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if info.SampleRate != 44100 || info.Channels != 2 || info.BitDepth != 16 {
		t.Errorf("Import() info = %+v", info)
	}
	if len(samples) == 0 {
		t.Fatal("Import() returned no samples")
	}

	var out bytes.Buffer
	if err := Export(FormatWAV, &out, samples, info); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	roundTripped, info2, err := Import(FormatWAV, bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("re-Import() error = %v", err)
	}
	if info2 != info {
		t.Errorf("re-Import() info = %+v, want %+v", info2, info)
	}
	if len(roundTripped) != len(samples) {
		t.Fatalf("re-Import() sample count = %d, want %d", len(roundTripped), len(samples))
	}
	for i := range samples {
		if roundTripped[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, roundTripped[i], samples[i])
		}
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	err := Export(FormatOGG, &bytes.Buffer{}, []int16{1, 2, 3}, WAVInfo{SampleRate: 44100, Channels: 1, BitDepth: 16})
	if err == nil {
		t.Fatal("expected error exporting to an unsupported format")
	}
}

func TestImport_UnsupportedFormat(t *testing.T) {
	_, _, err := Import(FormatUnknown, bytes.NewReader(nil))
	if err == nil {
		t.Fatal("expected error importing an unsupported format")
	}
}

func TestGetInfo_WAV(t *testing.T) {
	wavData := createTestWAV(t, 0.05, 22050, 1)

	info, err := GetInfo(bytes.NewReader(wavData), FormatWAV)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 {
		t.Errorf("GetInfo() = %+v", info)
	}
}
