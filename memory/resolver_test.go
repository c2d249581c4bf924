package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

type imageMemory map[uint32]byte

func (o imageMemory) putUint32(addr uint32, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	for i := range b {
		o[addr+uint32(i)] = b[i]
	}
}

func (o imageMemory) ReadMemory(addr uint32, size int) ([]byte, error) {
	out := make([]byte, size)
	for i := range out {
		b, ok := o[addr+uint32(i)]
		if !ok {
			return nil, fmt.Errorf("address 0x%x is not mapped", addr+uint32(i))
		}
		out[i] = b
	}
	return out, nil
}

func (o imageMemory) WriteMemory(addr uint32, p []byte) error {
	for i := range p {
		if _, ok := o[addr+uint32(i)]; !ok {
			return fmt.Errorf("address 0x%x is not mapped", addr+uint32(i))
		}
	}
	for i := range p {
		o[addr+uint32(i)] = p[i]
	}
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	image := imageMemory{}
	image.putUint32(100, 100)
	image.putUint32(108, 500)

	addr, err := NewResolver(image).Resolve(Path(100, 8, 4))
	if err != nil {
		t.Fatal(err)
	}

	if addr != 504 {
		t.Fatalf("expected 504 - got %d", addr)
	}
}

func TestResolver_ResolveSingleElement(t *testing.T) {
	addr, err := NewResolver(imageMemory{}).Resolve(Path(0x6a9ec0))
	if err != nil {
		t.Fatal(err)
	}

	if addr != 0x6a9ec0 {
		t.Fatalf("expected 0x6a9ec0 - got 0x%x", addr)
	}
}

func TestResolver_ResolveEmpty(t *testing.T) {
	_, err := NewResolver(imageMemory{}).Resolve(nil)
	if !errors.Is(err, ErrResolve) {
		t.Fatalf("expected ErrResolve - got %v", err)
	}
}

func TestResolver_ResolveUnreadable(t *testing.T) {
	image := imageMemory{}
	image.putUint32(100, 200)

	_, err := NewResolver(image).Resolve(Path(100, 8, 4))
	if !errors.Is(err, ErrResolve) {
		t.Fatalf("expected ErrResolve - got %v", err)
	}

	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected a *ResolveError - got %T", err)
	}

	if resolveErr.Depth != 1 || resolveErr.Address != 208 {
		t.Fatalf("expected depth 1 at 208 - got depth %d at %d",
			resolveErr.Depth, resolveErr.Address)
	}
}

func TestResolver_ReadWriteInt32(t *testing.T) {
	image := imageMemory{}
	image.putUint32(0x10, 0x100)
	image.putUint32(0x108, 50)

	resolver := NewResolver(image)
	path := Path(0x10, 0x8)

	v, err := resolver.ReadInt32(path)
	if err != nil {
		t.Fatal(err)
	}

	if v != 50 {
		t.Fatalf("expected 50 - got %d", v)
	}

	err = resolver.WriteInt32(path, -1)
	if err != nil {
		t.Fatal(err)
	}

	u, err := resolver.ReadUint32(path)
	if err != nil {
		t.Fatal(err)
	}

	if u != 0xffffffff {
		t.Fatalf("expected 0xffffffff - got 0x%x", u)
	}
}

func TestResolver_ReadWriteBool(t *testing.T) {
	image := imageMemory{0x20: 0}
	resolver := NewResolver(image)

	err := resolver.WriteBool(Path(0x20), true)
	if err != nil {
		t.Fatal(err)
	}

	v, err := resolver.ReadBool(Path(0x20))
	if err != nil {
		t.Fatal(err)
	}

	if !v {
		t.Fatal("expected true - got false")
	}
}

func TestFieldPath_Append(t *testing.T) {
	base := Path(1, 2)
	extended := base.Append(3)
	other := base.Append(4)

	if len(extended) != 3 || extended[2] != 3 {
		t.Fatalf("expected [1 2 3] - got %v", extended)
	}

	if other[2] != 4 || extended[2] != 3 {
		t.Fatalf("appends must not share storage - got %v and %v", extended, other)
	}
}
