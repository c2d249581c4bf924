package asmkit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

func TestBuilder_CallDisplacement(t *testing.T) {
	b := NewBuilder().
		MovImm(EAX, 1).
		PushImm(2).
		Call(0x1000).
		Ret()

	if b.Ops()[2].Offset != 10 {
		t.Fatalf("expected the call at offset 10 - got %d", b.Ops()[2].Offset)
	}

	code, err := b.Finalize(0x2000)
	if err != nil {
		t.Fatal(err)
	}

	target := uint32(0x1000)
	loadAddress := uint32(0x2000)
	exp := target - (loadAddress + 10 + 5)

	if code[10] != 0xe8 {
		t.Fatalf("expected call opcode 0xe8 - got 0x%x", code[10])
	}

	got := binary.LittleEndian.Uint32(code[11:15])
	if got != exp {
		t.Fatalf("expected displacement 0x%x - got 0x%x", exp, got)
	}
}

func TestBuilder_CallDecodesToTarget(t *testing.T) {
	code := NewBuilder().
		PushReg(EBP).
		Call(0x40d120).
		Ret().
		FinalizeOrExit(0x10000000)

	inst, err := x86asm.Decode(code[1:], 32)
	if err != nil {
		t.Fatal(err)
	}

	if inst.Op != x86asm.CALL {
		t.Fatalf("expected CALL - got %s", inst.Op)
	}

	rel, ok := inst.Args[0].(x86asm.Rel)
	if !ok {
		t.Fatalf("expected a relative argument - got %T", inst.Args[0])
	}

	callAddress := uint32(0x10000000 + 1)
	dest := callAddress + uint32(inst.Len) + uint32(int32(rel))
	if dest != 0x40d120 {
		t.Fatalf("expected call to 0x40d120 - got 0x%x", dest)
	}
}

func TestBuilder_Encodings(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Builder) *Builder
		exp  []byte
	}{
		{
			name: "mov eax, imm32",
			fn:   func(b *Builder) *Builder { return b.MovImm(EAX, 3) },
			exp:  []byte{0xb8, 0x03, 0x00, 0x00, 0x00},
		},
		{
			name: "mov edi, imm32",
			fn:   func(b *Builder) *Builder { return b.MovImm(EDI, 0xdeadbeef) },
			exp:  []byte{0xbf, 0xef, 0xbe, 0xad, 0xde},
		},
		{
			name: "mov ebp, [abs]",
			fn:   func(b *Builder) *Builder { return b.MovAbs(EBP, 0x6a9ec0) },
			exp:  []byte{0x8b, 0x2d, 0xc0, 0x9e, 0x6a, 0x00},
		},
		{
			name: "mov ecx, [eax+disp32]",
			fn:   func(b *Builder) *Builder { return b.MovRegOffset(ECX, EAX, 0x768) },
			exp:  []byte{0x8b, 0x88, 0x68, 0x07, 0x00, 0x00},
		},
		{
			name: "mov ebx, [ebx+disp32]",
			fn:   func(b *Builder) *Builder { return b.MovRegOffset(EBX, EBX, 0x768) },
			exp:  []byte{0x8b, 0x9b, 0x68, 0x07, 0x00, 0x00},
		},
		{
			name: "mov eax, [esp+disp32]",
			fn:   func(b *Builder) *Builder { return b.MovRegOffset(EAX, ESP, 4) },
			exp:  []byte{0x8b, 0x84, 0x24, 0x04, 0x00, 0x00, 0x00},
		},
		{
			name: "mov esi, eax",
			fn:   func(b *Builder) *Builder { return b.MovReg(ESI, EAX) },
			exp:  []byte{0x8b, 0xf0},
		},
		{
			name: "mov eax, ecx",
			fn:   func(b *Builder) *Builder { return b.MovReg(EAX, ECX) },
			exp:  []byte{0x8b, 0xc1},
		},
		{
			name: "add ecx, ebx",
			fn:   func(b *Builder) *Builder { return b.AddReg(ECX, EBX) },
			exp:  []byte{0x01, 0xd9},
		},
		{
			name: "imul ebx, ebx, imm32",
			fn:   func(b *Builder) *Builder { return b.ImulImm(EBX, EBX, 0x14c) },
			exp:  []byte{0x69, 0xdb, 0x4c, 0x01, 0x00, 0x00},
		},
		{
			name: "mov [eax+disp8], imm32",
			fn:   func(b *Builder) *Builder { return b.StoreImm(EAX, 0x54, 1) },
			exp:  []byte{0xc7, 0x40, 0x54, 0x01, 0x00, 0x00, 0x00},
		},
		{
			name: "mov [eax+disp32], imm32",
			fn:   func(b *Builder) *Builder { return b.StoreImm(EAX, 0x154, 1) },
			exp:  []byte{0xc7, 0x80, 0x54, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00},
		},
		{
			name: "push ebp",
			fn:   func(b *Builder) *Builder { return b.PushReg(EBP) },
			exp:  []byte{0x55},
		},
		{
			name: "pop ecx",
			fn:   func(b *Builder) *Builder { return b.PopReg(ECX) },
			exp:  []byte{0x59},
		},
		{
			name: "push -1",
			fn:   func(b *Builder) *Builder { return b.PushInt(-1) },
			exp:  []byte{0x68, 0xff, 0xff, 0xff, 0xff},
		},
		{
			name: "raw hex",
			fn:   func(b *Builder) *Builder { return b.RawHex("0x90, 0x90") },
			exp:  []byte{0x90, 0x90},
		},
		{
			name: "dword",
			fn:   func(b *Builder) *Builder { return b.Dword(1) },
			exp:  []byte{0x01, 0x00, 0x00, 0x00},
		},
		{
			name: "ret",
			fn:   func(b *Builder) *Builder { return b.Ret() },
			exp:  []byte{0xc3},
		},
	}

	for _, test := range tests {
		code, err := test.fn(NewBuilder()).Finalize(0)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}

		if !bytes.Equal(code, test.exp) {
			t.Fatalf("%s: expected 0x%x - got 0x%x", test.name, test.exp, code)
		}
	}
}

func TestBuilder_MovRegOffsetDecodes(t *testing.T) {
	code := NewBuilder().MovRegOffset(ECX, EAX, 0x768).FinalizeOrExit(0)

	inst, err := x86asm.Decode(code, 32)
	if err != nil {
		t.Fatal(err)
	}

	if inst.Op != x86asm.MOV || inst.Args[0] != x86asm.ECX {
		t.Fatalf("expected mov ecx, ... - got %s", inst)
	}

	mem, ok := inst.Args[1].(x86asm.Mem)
	if !ok {
		t.Fatalf("expected a memory argument - got %T", inst.Args[1])
	}

	if mem.Base != x86asm.EAX || mem.Disp != 0x768 {
		t.Fatalf("expected [eax+0x768] - got base %s disp 0x%x", mem.Base, mem.Disp)
	}
}

func TestBuilder_Finalized(t *testing.T) {
	b := NewBuilder().Ret()

	_, err := b.Finalize(0)
	if err != nil {
		t.Fatal(err)
	}

	_, err = b.Finalize(0)
	if !errors.Is(err, ErrFinalized) {
		t.Fatalf("expected ErrFinalized - got %v", err)
	}

	b.Ret()
	if !errors.Is(b.Err(), ErrFinalized) {
		t.Fatalf("expected ErrFinalized - got %v", b.Err())
	}
}

func TestBuilder_StickyError(t *testing.T) {
	b := NewBuilder().
		MovImm(Register(9), 1).
		Ret()

	if b.Err() == nil {
		t.Fatal("expected an error for an invalid register")
	}

	if b.Len() != 0 {
		t.Fatalf("expected no code after an error - got %d bytes", b.Len())
	}

	_, err := b.Finalize(0)
	if err == nil {
		t.Fatal("expected Finalize to return the sticky error")
	}
}

func TestBuilder_RawHexError(t *testing.T) {
	b := NewBuilder().RawHex("0x9")
	if b.Err() == nil {
		t.Fatal("expected an error for an odd number of hex digits")
	}
}

func TestParseRegister(t *testing.T) {
	r, err := ParseRegister("edi")
	if err != nil {
		t.Fatal(err)
	}

	if r != EDI {
		t.Fatalf("expected edi - got %s", r)
	}

	_, err = ParseRegister("rax")
	if err == nil {
		t.Fatal("expected an error for a 64-bit register")
	}
}
