package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
)

// ErrResolve is matched by errors returned when a FieldPath cannot be
// walked to the end.
var ErrResolve = errors.New("failed to resolve field path")

// FieldPath is a list of offsets describing a pointer chain. The first
// element is an absolute address. Every following element is added to
// the pointer read at the previous address.
type FieldPath []uint32

// Path is shorthand for FieldPath{offsets...}.
func Path(offsets ...uint32) FieldPath {
	return offsets
}

// Append returns a copy of the path extended by offsets.
func (o FieldPath) Append(offsets ...uint32) FieldPath {
	out := make(FieldPath, 0, len(o)+len(offsets))
	out = append(out, o...)
	return append(out, offsets...)
}

func (o FieldPath) String() string {
	return fmt.Sprintf("%#x", []uint32(o))
}

// ResolveError describes the pointer in a chain that could not be read.
type ResolveError struct {
	// Depth is the index of the path element whose address could
	// not be dereferenced.
	Depth   int
	Address uint32
	Err     error
}

func (o *ResolveError) Error() string {
	return fmt.Sprintf("failed to dereference pointer at 0x%x (path element %d) - %s",
		o.Address, o.Depth, o.Err)
}

func (o *ResolveError) Unwrap() error {
	return o.Err
}

func (o *ResolveError) Is(target error) bool {
	return target == ErrResolve
}

// NewResolver returns a Resolver that reads pointers from rw.
func NewResolver(rw ReadWriter) *Resolver {
	return &Resolver{
		rw: rw,
		pm: PointerMakerForX86_32(),
	}
}

// Resolver walks FieldPaths against target memory.
type Resolver struct {
	rw ReadWriter
	pm PointerMaker

	// Logger, if set, logs every resolved path.
	Logger *log.Logger
}

// Resolve returns the address described by path. A path with a single
// element resolves to that element. An empty path is an error.
func (o *Resolver) Resolve(path FieldPath) (uint32, error) {
	if len(path) == 0 {
		return 0, fmt.Errorf("%w - path is empty", ErrResolve)
	}

	current := path[0]

	for i := 1; i < len(path); i++ {
		raw, err := o.rw.ReadMemory(current, o.pm.Size())
		if err != nil {
			return 0, &ResolveError{Depth: i - 1, Address: current, Err: err}
		}

		pointer, err := o.pm.FromBytes(raw)
		if err != nil {
			return 0, &ResolveError{Depth: i - 1, Address: current, Err: err}
		}

		current = pointer.Uint() + path[i]
	}

	if o.Logger != nil {
		o.Logger.Printf("resolved %s to 0x%x", path, current)
	}

	return current, nil
}

// ReadBytes reads size bytes at the address described by path.
func (o *Resolver) ReadBytes(path FieldPath, size int) ([]byte, error) {
	addr, err := o.Resolve(path)
	if err != nil {
		return nil, err
	}

	b, err := o.rw.ReadMemory(addr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d bytes at 0x%x - %w", size, addr, err)
	}

	if len(b) != size {
		return nil, fmt.Errorf("short read at 0x%x - wanted %d bytes, got %d",
			addr, size, len(b))
	}

	return b, nil
}

// ReadUint32 reads a little endian uint32 at the address described by path.
func (o *Resolver) ReadUint32(path FieldPath) (uint32, error) {
	b, err := o.ReadBytes(path, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little endian int32 at the address described by path.
func (o *Resolver) ReadInt32(path FieldPath) (int32, error) {
	u, err := o.ReadUint32(path)
	return int32(u), err
}

// ReadUint8 reads a single byte at the address described by path.
func (o *Resolver) ReadUint8(path FieldPath) (byte, error) {
	b, err := o.ReadBytes(path, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadBool reads a one byte boolean at the address described by path.
func (o *Resolver) ReadBool(path FieldPath) (bool, error) {
	b, err := o.ReadUint8(path)
	return b != 0, err
}

// WriteBytes writes p at the address described by path.
func (o *Resolver) WriteBytes(path FieldPath, p []byte) error {
	addr, err := o.Resolve(path)
	if err != nil {
		return err
	}

	err = o.rw.WriteMemory(addr, p)
	if err != nil {
		return fmt.Errorf("failed to write %d bytes at 0x%x - %w", len(p), addr, err)
	}

	return nil
}

// WriteUint32 writes a little endian uint32 at the address described by path.
func (o *Resolver) WriteUint32(path FieldPath, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return o.WriteBytes(path, b)
}

// WriteInt32 writes a little endian int32 at the address described by path.
func (o *Resolver) WriteInt32(path FieldPath, v int32) error {
	return o.WriteUint32(path, uint32(v))
}

// WriteUint8 writes a single byte at the address described by path.
func (o *Resolver) WriteUint8(path FieldPath, v byte) error {
	return o.WriteBytes(path, []byte{v})
}

// WriteBool writes a one byte boolean at the address described by path.
func (o *Resolver) WriteBool(path FieldPath, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return o.WriteUint8(path, b)
}
