package codec

import (
	"bytes"
	"testing"
)

func TestEncodeDecode_HeaderPassthrough(t *testing.T) {
	header := bytes.Repeat([]byte{0xAB}, HeaderSize)
	samples := []Sample{1, 2, 3, 1, 2, 3, 9999}

	input := append(append([]byte{}, header...), samplesToBytes(samples)...)

	var encoded bytes.Buffer
	if _, err := Encode(bytes.NewReader(input), &encoded); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if !bytes.Equal(encoded.Bytes()[:HeaderSize], header) {
		t.Fatalf("encoded header mismatch")
	}

	var decoded bytes.Buffer
	if _, err := Decode(&encoded, &decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	out := decoded.Bytes()
	if !bytes.Equal(out[:HeaderSize], header) {
		t.Fatalf("decoded header mismatch")
	}

	gotSamples := bytesToSamples(t, out[HeaderSize:])
	assertSamplesEqual(t, gotSamples, samples)
}

func TestEncodeDecode_StatsReflectRuns(t *testing.T) {
	header := make([]byte, HeaderSize)
	samples := []Sample{100, 200, 300, 400, 500}
	input := append(append([]byte{}, header...), samplesToBytes(samples)...)

	var encoded bytes.Buffer
	stats, err := Encode(bytes.NewReader(input), &encoded)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if stats.LiteralRuns != 1 {
		t.Errorf("LiteralRuns = %d, want 1", stats.LiteralRuns)
	}
	if stats.EncodedRuns != 0 {
		t.Errorf("EncodedRuns = %d, want 0", stats.EncodedRuns)
	}
	if stats.TotalSamples() != len(samples) {
		t.Errorf("TotalSamples() = %d, want %d", stats.TotalSamples(), len(samples))
	}
}

func TestEncode_ShortHeaderIsCopiedAsFarAsItGoes(t *testing.T) {
	short := []byte{1, 2, 3}

	var encoded bytes.Buffer
	if _, err := Encode(bytes.NewReader(short), &encoded); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// The short header is copied verbatim; since no samples follow, the only
	// thing written after it is the end-of-stream marker word.
	if !bytes.Equal(encoded.Bytes()[:len(short)], short) {
		t.Fatalf("encoded output for short header = %v, want prefix %v", encoded.Bytes(), short)
	}
	if got, want := encoded.Len(), len(short)+2; got != want {
		t.Fatalf("encoded length = %d, want %d", got, want)
	}
}
