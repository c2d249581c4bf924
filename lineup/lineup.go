// Package lineup converts board layouts to and from lineup tokens.
//
// A token is built by packing every cell of the board into 16 bits,
// compressing the packed cells with zlib, appending a trailer byte
// holding the scene and the rake row, masking every byte with 0x54,
// and encoding the result with standard base64.
package lineup

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
)

const (
	// Cols is the number of columns of every board.
	Cols = 9

	// MaxRows is the number of rows of the largest board.
	MaxRows = 6

	// MaxPlantType is the largest plant type that can be stored
	// in a cell.
	MaxPlantType = 47

	mask = 0x54

	minTokenLen = 18
	maxTokenLen = 164
)

var (
	// ErrTokenFormat is returned when a token is not made of the
	// expected characters or has the wrong length or padding.
	ErrTokenFormat = errors.New("invalid lineup token format")

	// ErrTokenDecode is returned when a well formed token does not
	// contain a valid board.
	ErrTokenDecode = errors.New("failed to decode lineup token")

	// ErrInvalidSnapshot is returned when a Snapshot cannot be
	// represented as a token.
	ErrInvalidSnapshot = errors.New("invalid lineup snapshot")

	tokenPattern = regexp.MustCompile(`^[a-zA-Z0-9+/=]{18,164}$`)
)

// Scene identifies a level background.
type Scene uint8

const (
	Day Scene = iota
	Night
	Pool
	Fog
	Roof
	Moon
)

var sceneNames = [...]string{"day", "night", "pool", "fog", "roof", "moon"}

func (o Scene) String() string {
	if int(o) < len(sceneNames) {
		return sceneNames[o]
	}

	return fmt.Sprintf("Scene(%d)", uint8(o))
}

// RowCount returns the number of rows of the scene's board.
func RowCount(scene Scene) int {
	if scene == Pool || scene == Fog {
		return 6
	}

	return 5
}

// BaseType is what a plant in a cell stands on.
type BaseType uint8

const (
	NoBase BaseType = iota
	LilyPad
	FlowerPot
	Grave
)

var baseTypeNames = [...]string{"none", "lily_pad", "flower_pot", "grave"}

func (o BaseType) String() string {
	if int(o) < len(baseTypeNames) {
		return baseTypeNames[o]
	}

	return fmt.Sprintf("BaseType(%d)", uint8(o))
}

// Plant is the primary plant of a cell.
type Plant struct {
	Present  bool
	Type     uint8
	Imitater bool
	Awake    bool
}

// Cell is one square of the board.
type Cell struct {
	Plant           Plant
	Base            BaseType
	BaseImitater    bool
	Pumpkin         bool
	PumpkinImitater bool
	Coffee          bool
	CoffeeImitater  bool
	Ladder          bool
}

// Snapshot is a board layout.
type Snapshot struct {
	Scene Scene

	// RakeRow is the 1-based row of the rake. Zero means no rake.
	RakeRow uint8

	// Cells is indexed by row, then column. Rows past
	// RowCount(Scene) must be empty.
	Cells [MaxRows][Cols]Cell
}

// Rows returns RowCount(o.Scene).
func (o Snapshot) Rows() int {
	return RowCount(o.Scene)
}

// Validate checks that the Snapshot can be encoded.
func (o Snapshot) Validate() error {
	err := validateTrailer(o.Scene, o.RakeRow)
	if err != nil {
		return err
	}

	rows := o.Rows()

	for r := 0; r < MaxRows; r++ {
		for c := 0; c < Cols; c++ {
			cell := o.Cells[r][c]

			if r >= rows {
				if cell != (Cell{}) {
					return fmt.Errorf("cell %d,%d is outside of the %d row board", r, c, rows)
				}
				continue
			}

			if cell.Plant.Present && cell.Plant.Type > MaxPlantType {
				return fmt.Errorf("plant type %d in cell %d,%d is out of range",
					cell.Plant.Type, r, c)
			}

			if !cell.Plant.Present && cell.Plant.Type != 0 {
				return fmt.Errorf("cell %d,%d has plant type %d but no plant",
					r, c, cell.Plant.Type)
			}

			if cell.Base > Grave {
				return fmt.Errorf("base type %d in cell %d,%d is out of range", cell.Base, r, c)
			}
		}
	}

	return nil
}

func validateTrailer(scene Scene, rakeRow uint8) error {
	if scene > Moon {
		return fmt.Errorf("scene %d is out of range", scene)
	}

	if rakeRow != 0 && int(rakeRow) > RowCount(scene) {
		return fmt.Errorf("rake row %d is out of range for scene %s", rakeRow, scene)
	}

	if (scene == Pool || scene == Fog) && (rakeRow == 3 || rakeRow == 4) {
		return fmt.Errorf("rake row %d is a pool row in scene %s", rakeRow, scene)
	}

	return nil
}

// Pack returns the 16-bit representation of the cell.
func (o Cell) Pack() uint16 {
	var v uint16

	if o.Plant.Present {
		v |= uint16(o.Plant.Type+1) << 10
	}

	v |= uint16(o.Base&3) << 6
	v |= flag(o.Plant.Imitater, 9)
	v |= flag(o.Plant.Awake, 8)
	v |= flag(o.BaseImitater, 5)
	v |= flag(o.Pumpkin, 4)
	v |= flag(o.PumpkinImitater, 3)
	v |= flag(o.Coffee, 2)
	v |= flag(o.CoffeeImitater, 1)
	v |= flag(o.Ladder, 0)

	return v
}

// UnpackCell is the inverse of Cell.Pack.
func UnpackCell(v uint16) Cell {
	var cell Cell

	if id := v >> 10; id != 0 {
		cell.Plant.Present = true
		cell.Plant.Type = uint8(id - 1)
	}

	cell.Plant.Imitater = isSet(v, 9)
	cell.Plant.Awake = isSet(v, 8)
	cell.Base = BaseType(v>>6) & 3
	cell.BaseImitater = isSet(v, 5)
	cell.Pumpkin = isSet(v, 4)
	cell.PumpkinImitater = isSet(v, 3)
	cell.Coffee = isSet(v, 2)
	cell.CoffeeImitater = isSet(v, 1)
	cell.Ladder = isSet(v, 0)

	return cell
}

func flag(b bool, bit uint) uint16 {
	if b {
		return 1 << bit
	}

	return 0
}

func isSet(v uint16, bit uint) bool {
	return v&(1<<bit) != 0
}

// Encode returns the token for s.
func Encode(s Snapshot) (string, error) {
	err := s.Validate()
	if err != nil {
		return "", fmt.Errorf("%w - %s", ErrInvalidSnapshot, err)
	}

	rows := s.Rows()

	packed := make([]byte, rows*Cols*2)
	for r := 0; r < rows; r++ {
		for c := 0; c < Cols; c++ {
			binary.LittleEndian.PutUint16(packed[(r*Cols+c)*2:], s.Cells[r][c].Pack())
		}
	}

	buf := bytes.NewBuffer(nil)

	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create zlib writer - %w", err)
	}

	_, err = zw.Write(packed)
	if err != nil {
		return "", fmt.Errorf("failed to compress board - %w", err)
	}

	err = zw.Close()
	if err != nil {
		return "", fmt.Errorf("failed to finish compressing board - %w", err)
	}

	buf.WriteByte(s.RakeRow<<4 | byte(s.Scene)&0x0f)

	payload := buf.Bytes()
	for i := range payload {
		payload[i] ^= mask
	}

	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decode parses a token. On failure the zero Snapshot is returned
// with an error matching ErrTokenFormat or ErrTokenDecode.
func Decode(token string) (Snapshot, error) {
	err := checkFormat(token)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w - %s", ErrTokenFormat, err)
	}

	s, err := decode(token)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w - %s", ErrTokenDecode, err)
	}

	return s, nil
}

func checkFormat(token string) error {
	if len(token) < minTokenLen || len(token) > maxTokenLen {
		return fmt.Errorf("token length %d is outside of [%d, %d]",
			len(token), minTokenLen, maxTokenLen)
	}

	if !tokenPattern.MatchString(token) {
		return fmt.Errorf("token contains characters outside of the base64 alphabet")
	}

	if len(token)%4 != 0 {
		return fmt.Errorf("token length %d is not a multiple of 4", len(token))
	}

	if n := bytes.Count([]byte(token), []byte("=")); n > 2 {
		return fmt.Errorf("token has %d padding characters", n)
	}

	return nil
}

func decode(token string) (Snapshot, error) {
	payload, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to base64 decode token - %w", err)
	}

	if len(payload) < 2 {
		return Snapshot{}, fmt.Errorf("token payload is only %d bytes", len(payload))
	}

	for i := range payload {
		payload[i] ^= mask
	}

	trailer := payload[len(payload)-1]
	scene := Scene(trailer & 0x0f)
	rakeRow := trailer >> 4

	err = validateTrailer(scene, rakeRow)
	if err != nil {
		return Snapshot{}, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(payload[:len(payload)-1]))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create zlib reader - %w", err)
	}
	defer zr.Close()

	packed, err := io.ReadAll(io.LimitReader(zr, MaxRows*Cols*2+1))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decompress board - %w", err)
	}

	rows := RowCount(scene)
	if len(packed) != rows*Cols*2 {
		return Snapshot{}, fmt.Errorf("decompressed board is %d bytes - expected %d bytes for scene %s",
			len(packed), rows*Cols*2, scene)
	}

	s := Snapshot{
		Scene:   scene,
		RakeRow: rakeRow,
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < Cols; c++ {
			s.Cells[r][c] = UnpackCell(binary.LittleEndian.Uint16(packed[(r*Cols+c)*2:]))
		}
	}

	return s, nil
}
