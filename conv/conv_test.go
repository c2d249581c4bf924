package conv

import (
	"bytes"
	"testing"
)

func TestHexArrayStringToBytes(t *testing.T) {
	tests := []struct {
		in  string
		exp []byte
	}{
		{in: "0xfe", exp: []byte{0xfe}},
		{in: "0x90, 0xe9", exp: []byte{0x90, 0xe9}},
		{in: `"\x31\xc0" // xor eax, eax`, exp: []byte{0x31, 0xc0}},
		{in: "eb 00", exp: []byte{0xeb, 0x00}},
		{in: "0x00,0x0c", exp: []byte{0x00, 0x0c}},
		{in: "", exp: nil},
	}

	for _, test := range tests {
		res, err := HexArrayStringToBytes(test.in)
		if err != nil {
			t.Fatalf("failed to parse %q - %s", test.in, err)
		}

		if !bytes.Equal(res, test.exp) {
			t.Fatalf("expected 0x%x for %q - got 0x%x", test.exp, test.in, res)
		}
	}
}

func TestHexArrayStringToBytes_OddDigits(t *testing.T) {
	for _, in := range []string{"0x9", "0x90, 0xe"} {
		_, err := HexArrayStringToBytes(in)
		if err == nil {
			t.Fatalf("expected an error for %q", in)
		}
	}
}

func TestBytesToHexArray_RoundTrip(t *testing.T) {
	exp := []byte{0x29, 0x50, 0x40}

	res, err := HexArrayStringToBytes(BytesToHexArray(exp))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(res, exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, res)
	}
}
