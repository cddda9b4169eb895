package hpack

import (
	"bytes"
	"errors"
	"testing"
)

func TestAppendIntegerRFCExamples(t *testing.T) {
	tests := []struct {
		value      uint64
		n          uint8
		prefixBits byte
		want       []byte
	}{
		// RFC 7541 C.1.1: 10 fits in a 5-bit prefix.
		{10, 5, 0x00, []byte{0x0a}},
		// RFC 7541 C.1.2: 1337 needs continuation bytes.
		{1337, 5, 0x00, []byte{0x1f, 0x9a, 0x0a}},
		// RFC 7541 C.1.3: 42 fits in an 8-bit prefix.
		{42, 8, 0x00, []byte{0x2a}},
	}

	for _, tt := range tests {
		got := appendInteger(nil, tt.value, tt.n, tt.prefixBits)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("appendInteger(%d, %d, %#x) = %x, want %x", tt.value, tt.n, tt.prefixBits, got, tt.want)
		}
	}
}

func TestDecodeIntegerRFCExamples(t *testing.T) {
	tests := []struct {
		in        []byte
		n         uint8
		wantValue uint64
		wantN     int
	}{
		{[]byte{0x0a}, 5, 10, 1},
		{[]byte{0x1f, 0x9a, 0x0a}, 5, 1337, 3},
		{[]byte{0x2a}, 8, 42, 1},
	}

	for _, tt := range tests {
		value, consumed, err := decodeInteger(tt.in, tt.n)
		if err != nil {
			t.Fatalf("decodeInteger(%x, %d) unexpected error: %v", tt.in, tt.n, err)
		}
		if value != tt.wantValue || consumed != tt.wantN {
			t.Errorf("decodeInteger(%x, %d) = (%d, %d), want (%d, %d)", tt.in, tt.n, value, consumed, tt.wantValue, tt.wantN)
		}
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 15, 16, 127, 128, 129, 1337, 16383, 16384, 1 << 20, 1<<32 - 1}
	for _, n := range []uint8{1, 3, 4, 5, 6, 7, 8} {
		for _, v := range values {
			encoded := appendInteger(nil, v, n, 0)
			got, consumed, err := decodeInteger(encoded, n)
			if err != nil {
				t.Fatalf("n=%d v=%d: decode error: %v", n, v, err)
			}
			if consumed != len(encoded) {
				t.Errorf("n=%d v=%d: consumed %d, want %d", n, v, consumed, len(encoded))
			}
			if got != v {
				t.Errorf("n=%d v=%d: round-tripped to %d", n, v, got)
			}
		}
	}
}

func TestDecodeIntegerIncomplete(t *testing.T) {
	full := appendInteger(nil, 1337, 5, 0)
	for i := 0; i < len(full)-1; i++ {
		_, _, err := decodeInteger(full[:i], 5)
		var incomplete *IncompleteDataError
		if !errors.As(err, &incomplete) {
			t.Errorf("decodeInteger(%x[:%d], 5) = %v, want *IncompleteDataError", full, i, err)
		}
	}
}

func TestDecodeIntegerOverflow(t *testing.T) {
	// A prefix that keeps setting the continuation bit forever cannot decode
	// to any uint64.
	in := append([]byte{0x1f}, bytes.Repeat([]byte{0xff}, 12)...)
	_, _, err := decodeInteger(in, 5)
	if !errors.Is(err, ErrIntegerOverflow) {
		t.Fatalf("decodeInteger(%x, 5) = %v, want ErrIntegerOverflow", in, err)
	}
}

func TestDecodeIntegerEmpty(t *testing.T) {
	_, _, err := decodeInteger(nil, 5)
	var incomplete *IncompleteDataError
	if !errors.As(err, &incomplete) {
		t.Fatalf("decodeInteger(nil, 5) = %v, want *IncompleteDataError", err)
	}
}
