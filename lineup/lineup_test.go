package lineup

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func randomSnapshot(rng *rand.Rand) Snapshot {
	s := Snapshot{
		Scene: Scene(rng.Intn(6)),
	}

	for {
		s.RakeRow = uint8(rng.Intn(RowCount(s.Scene) + 1))
		if validateTrailer(s.Scene, s.RakeRow) == nil {
			break
		}
	}

	for r := 0; r < s.Rows(); r++ {
		for c := 0; c < Cols; c++ {
			cell := Cell{
				Base:            BaseType(rng.Intn(4)),
				BaseImitater:    rng.Intn(2) == 0,
				Pumpkin:         rng.Intn(2) == 0,
				PumpkinImitater: rng.Intn(2) == 0,
				Coffee:          rng.Intn(2) == 0,
				CoffeeImitater:  rng.Intn(2) == 0,
				Ladder:          rng.Intn(2) == 0,
			}

			if rng.Intn(3) != 0 {
				cell.Plant = Plant{
					Present:  true,
					Type:     uint8(rng.Intn(MaxPlantType + 1)),
					Imitater: rng.Intn(2) == 0,
					Awake:    rng.Intn(2) == 0,
				}
			}

			s.Cells[r][c] = cell
		}
	}

	return s
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		s := randomSnapshot(rng)

		token, err := Encode(s)
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}

		decoded, err := Decode(token)
		if err != nil {
			t.Fatalf("snapshot %d: failed to decode %q - %v", i, token, err)
		}

		if decoded != s {
			t.Fatalf("snapshot %d: expected %+v - got %+v", i, s, decoded)
		}
	}
}

func TestEncodeDecode_EmptyBoards(t *testing.T) {
	for scene := Day; scene <= Moon; scene++ {
		s := Snapshot{Scene: scene}

		token, err := Encode(s)
		if err != nil {
			t.Fatal(err)
		}

		if len(token) < minTokenLen {
			t.Fatalf("scene %s: token %q is shorter than %d", scene, token, minTokenLen)
		}

		decoded, err := Decode(token)
		if err != nil {
			t.Fatalf("scene %s: %v", scene, err)
		}

		if decoded != s {
			t.Fatalf("scene %s: expected %+v - got %+v", scene, s, decoded)
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	s := randomSnapshot(rand.New(rand.NewSource(2)))

	a, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Fatalf("expected identical tokens - got %q and %q", a, b)
	}
}

func TestEncode_NoLineBreaks(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		token, err := Encode(randomSnapshot(rng))
		if err != nil {
			t.Fatal(err)
		}

		if strings.ContainsAny(token, "\r\n") {
			t.Fatalf("token %q contains a line break", token)
		}

		if len(token) > maxTokenLen {
			t.Fatalf("token %q is longer than %d", token, maxTokenLen)
		}
	}
}

func TestEncode_InvalidSnapshot(t *testing.T) {
	tests := map[string]Snapshot{
		"scene out of range": {Scene: 6},
		"rake out of range":  {Scene: Day, RakeRow: 6},
		"rake in pool":       {Scene: Pool, RakeRow: 3},
		"plant out of range": func() Snapshot {
			s := Snapshot{}
			s.Cells[0][0].Plant = Plant{Present: true, Type: 48}
			return s
		}(),
		"sixth row on day": func() Snapshot {
			s := Snapshot{}
			s.Cells[5][0].Ladder = true
			return s
		}(),
	}

	for name, s := range tests {
		_, err := Encode(s)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("%s: expected ErrInvalidSnapshot - got %v", name, err)
		}
	}
}

func TestDecode_FormatErrors(t *testing.T) {
	valid, err := Encode(Snapshot{Scene: Pool})
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"17 chars":           strings.Repeat("A", 17),
		"165 chars":          strings.Repeat("A", 165),
		"not multiple of 4":  strings.Repeat("A", 19),
		"three padding":      strings.Repeat("A", 17) + "===",
		"bad character":      strings.Repeat("A", 19) + "-",
		"embedded line feed": valid[:4] + "\n" + valid[4:],
	}

	for name, token := range tests {
		s, err := Decode(token)
		if !errors.Is(err, ErrTokenFormat) {
			t.Fatalf("%s: expected ErrTokenFormat - got %v", name, err)
		}

		if s != (Snapshot{}) {
			t.Fatalf("%s: expected the zero snapshot - got %+v", name, s)
		}
	}
}

func craftToken(t *testing.T, packed []byte, trailer byte) string {
	buf := bytes.NewBuffer(nil)

	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		t.Fatal(err)
	}

	_, err = zw.Write(packed)
	if err != nil {
		t.Fatal(err)
	}

	err = zw.Close()
	if err != nil {
		t.Fatal(err)
	}

	buf.WriteByte(trailer)

	payload := buf.Bytes()
	for i := range payload {
		payload[i] ^= mask
	}

	return base64.StdEncoding.EncodeToString(payload)
}

func TestDecode_TrailerErrors(t *testing.T) {
	tests := map[string]string{
		"scene 6":            craftToken(t, make([]byte, 90), 0x06),
		"scene 7":            craftToken(t, make([]byte, 90), 0x07),
		"rake row 3 in pool": craftToken(t, make([]byte, 108), 0x32),
		"rake row 4 in fog":  craftToken(t, make([]byte, 108), 0x43),
		"rake row 6 on day":  craftToken(t, make([]byte, 90), 0x60),
	}

	for name, token := range tests {
		s, err := Decode(token)
		if !errors.Is(err, ErrTokenDecode) {
			t.Fatalf("%s: expected ErrTokenDecode - got %v", name, err)
		}

		if s != (Snapshot{}) {
			t.Fatalf("%s: expected the zero snapshot - got %+v", name, s)
		}
	}
}

func TestDecode_LengthMismatch(t *testing.T) {
	tests := map[string]string{
		"six rows on day":   craftToken(t, make([]byte, 108), 0x00),
		"five rows in pool": craftToken(t, make([]byte, 90), 0x02),
		"short board":       craftToken(t, make([]byte, 89), 0x01),
	}

	for name, token := range tests {
		_, err := Decode(token)
		if !errors.Is(err, ErrTokenDecode) {
			t.Fatalf("%s: expected ErrTokenDecode - got %v", name, err)
		}
	}
}

func TestDecode_CraftedBoard(t *testing.T) {
	packed := make([]byte, 108)

	// Awake imitater gloom-shroom on a lily pad with a pumpkin.
	packed[0] = 0b01_1_1_0000
	packed[1] = 0b101011_1_1

	s, err := Decode(craftToken(t, packed, 0x12))
	if err != nil {
		t.Fatal(err)
	}

	if s.Scene != Pool || s.RakeRow != 1 {
		t.Fatalf("expected scene pool and rake row 1 - got %s and %d", s.Scene, s.RakeRow)
	}

	exp := Cell{
		Plant:        Plant{Present: true, Type: 42, Imitater: true, Awake: true},
		Base:         LilyPad,
		BaseImitater: true,
		Pumpkin:      true,
	}

	if s.Cells[0][0] != exp {
		t.Fatalf("expected %+v - got %+v", exp, s.Cells[0][0])
	}
}

func TestCell_PackLayout(t *testing.T) {
	cell := Cell{
		Plant:          Plant{Present: true, Type: 0},
		Base:           Grave,
		Coffee:         true,
		CoffeeImitater: true,
		Ladder:         true,
	}

	exp := uint16(1<<10 | 3<<6 | 1<<2 | 1<<1 | 1)
	if cell.Pack() != exp {
		t.Fatalf("expected 0b%016b - got 0b%016b", exp, cell.Pack())
	}

	if UnpackCell(exp) != cell {
		t.Fatalf("expected %+v - got %+v", cell, UnpackCell(exp))
	}
}
