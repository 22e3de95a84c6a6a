package codec

import "testing"

func TestPackUnpack_2x4(t *testing.T) {
	tests := [][]byte{
		{0, 0},
		{0x0F, 0x0F},
		{3, 11},
		{15, 0},
		{0, 15},
	}

	for _, indices := range tests {
		packed, err := Pack(indices, 4)
		if err != nil {
			t.Fatalf("Pack(%v, 4) error = %v", indices, err)
		}
		if len(packed) != 1 {
			t.Fatalf("Pack(%v, 4) len = %d, want 1", indices, len(packed))
		}

		got, err := Unpack(packed, 4)
		if err != nil {
			t.Fatalf("Unpack error = %v", err)
		}
		if got[0] != indices[0] || got[1] != indices[1] {
			t.Errorf("round trip %v -> %v -> %v", indices, packed, got)
		}
	}
}

func TestPackUnpack_4x6(t *testing.T) {
	tests := [][]byte{
		{0, 0, 0, 0},
		{0x3F, 0x3F, 0x3F, 0x3F},
		{1, 2, 3, 4},
		{63, 0, 63, 0},
	}

	for _, indices := range tests {
		packed, err := Pack(indices, 6)
		if err != nil {
			t.Fatalf("Pack(%v, 6) error = %v", indices, err)
		}
		if len(packed) != 3 {
			t.Fatalf("Pack(%v, 6) len = %d, want 3", indices, len(packed))
		}

		got, err := Unpack(packed, 6)
		if err != nil {
			t.Fatalf("Unpack error = %v", err)
		}
		for i := range indices {
			if got[i] != indices[i] {
				t.Errorf("round trip %v -> %v -> %v", indices, packed, got)
				break
			}
		}
	}
}

func TestPackUnpack_8x7(t *testing.T) {
	tests := [][]byte{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F},
		{1, 2, 3, 4, 5, 6, 7, 8},
		{127, 0, 127, 0, 127, 0, 127, 0},
	}

	for _, indices := range tests {
		packed, err := Pack(indices, 7)
		if err != nil {
			t.Fatalf("Pack(%v, 7) error = %v", indices, err)
		}
		if len(packed) != 7 {
			t.Fatalf("Pack(%v, 7) len = %d, want 7", indices, len(packed))
		}

		got, err := Unpack(packed, 7)
		if err != nil {
			t.Fatalf("Unpack error = %v", err)
		}
		for i := range indices {
			if got[i] != indices[i] {
				t.Errorf("round trip %v -> %v -> %v", indices, packed, got)
				break
			}
		}
	}
}

func TestPackUnpack_ExhaustiveSmallWidths(t *testing.T) {
	// 2x4: exhaustively check every combination of two 4-bit values.
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			indices := []byte{byte(a), byte(b)}
			packed, err := Pack(indices, 4)
			if err != nil {
				t.Fatalf("Pack error: %v", err)
			}
			got, err := Unpack(packed, 4)
			if err != nil {
				t.Fatalf("Unpack error: %v", err)
			}
			if got[0] != indices[0] || got[1] != indices[1] {
				t.Fatalf("2x4 round trip failed for (%d,%d): got %v", a, b, got)
			}
		}
	}
}

func TestPack_UnsupportedSize(t *testing.T) {
	for _, size := range []int{0, 1, 2, 3, 5, 8} {
		if _, err := Pack([]byte{1, 2}, size); err == nil {
			t.Errorf("Pack with size %d: expected error, got nil", size)
		}
		if _, err := Unpack([]byte{1, 2}, size); err == nil {
			t.Errorf("Unpack with size %d: expected error, got nil", size)
		}
	}
}

func TestPacker2x4Layout(t *testing.T) {
	// packed[0] = (buffer[1]<<4) | (buffer[0]&0x0F)
	packed, err := Pack([]byte{0x05, 0x0A}, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := byte((0x0A << 4) | (0x05 & 0x0F))
	if packed[0] != want {
		t.Errorf("packed[0] = 0x%X, want 0x%X", packed[0], want)
	}
}
