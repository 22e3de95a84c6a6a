package codec

import "testing"

func TestEncodeDecodeMarker_Encoded(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		packerBit int
	}{
		{"size4-min", 2, 4},
		{"size4-max", MaxEncodedRunLength - (MaxEncodedRunLength % 2), 4},
		{"size6", 4, 6},
		{"size7", 8, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Marker{Encoded: true, Count: tt.count, PackerBit: tt.packerBit}
			word, err := EncodeMarker(in)
			if err != nil {
				t.Fatalf("EncodeMarker() error = %v", err)
			}

			out, ok, err := DecodeMarker(word)
			if err != nil {
				t.Fatalf("DecodeMarker() error = %v", err)
			}
			if !ok {
				t.Fatalf("DecodeMarker() ok = false, want true")
			}
			if out != in {
				t.Errorf("round trip = %+v, want %+v", out, in)
			}
		})
	}
}

func TestEncodeDecodeMarker_Literal(t *testing.T) {
	tests := []int{1, 5, 64, MaxLiteralRunLength}

	for _, count := range tests {
		in := Marker{Encoded: false, Count: count}
		word, err := EncodeMarker(in)
		if err != nil {
			t.Fatalf("EncodeMarker(%d) error = %v", count, err)
		}

		out, ok, err := DecodeMarker(word)
		if err != nil {
			t.Fatalf("DecodeMarker() error = %v", err)
		}
		if !ok {
			t.Fatalf("DecodeMarker() ok = false, want true")
		}
		if out.Encoded || out.Count != count {
			t.Errorf("round trip = %+v, want Count=%d Encoded=false", out, count)
		}
	}
}

func TestDecodeMarker_EndOfStream(t *testing.T) {
	m, ok, err := DecodeMarker(0)
	if err != nil {
		t.Fatalf("DecodeMarker(0) error = %v", err)
	}
	if ok {
		t.Errorf("DecodeMarker(0) ok = true, want false")
	}
	if m != (Marker{}) {
		t.Errorf("DecodeMarker(0) marker = %+v, want zero value", m)
	}
}

func TestEncodeMarker_CountTooLarge(t *testing.T) {
	_, err := EncodeMarker(Marker{Encoded: true, Count: MaxEncodedRunLength + 1, PackerBit: 4})
	if err == nil {
		t.Fatal("expected error for count exceeding MaxEncodedRunLength")
	}
}

func TestEncodeMarker_UnsupportedPackerTag(t *testing.T) {
	_, err := EncodeMarker(Marker{Encoded: true, Count: 2, PackerBit: 5})
	if err == nil {
		t.Fatal("expected error for unsupported packer bit width")
	}
}

func TestMarkerTagBits(t *testing.T) {
	tests := []struct {
		packerBit int
		wantTag   uint16
	}{
		{4, 0},
		{6, 1},
		{7, 2},
	}

	for _, tt := range tests {
		word, err := EncodeMarker(Marker{Encoded: true, Count: 1, PackerBit: tt.packerBit})
		if err != nil {
			t.Fatalf("EncodeMarker error = %v", err)
		}
		if got := word & 0x3; got != tt.wantTag {
			t.Errorf("packer bit %d: tag bits = %d, want %d", tt.packerBit, got, tt.wantTag)
		}
	}
}
