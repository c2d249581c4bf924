package asmkit

import (
	"encoding/binary"
	"fmt"

	"gitlab.com/stephen-fox/pvzkit/conv"
)

// NewBuilder returns a Builder that produces 32-bit x86 code.
func NewBuilder() *Builder {
	return NewBuilderFor(X86Backend{})
}

// NewBuilderFor returns a Builder that lowers operations with backend.
func NewBuilderFor(backend Backend) *Builder {
	return &Builder{
		backend: backend,
	}
}

// Builder accumulates code one operation at a time. Methods that append
// operations can be chained. The first error is kept and returned by
// Err and Finalize; appends after an error are ignored.
//
// A Builder is finalized once. After Finalize, appends and further
// calls to Finalize fail with ErrFinalized.
type Builder struct {
	backend   Backend
	ops       []Op
	code      []byte
	fixups    []fixup
	finalized bool
	err       error
}

type fixup struct {
	offset int
	target uint32
}

// MovImm appends "mov dst, value".
func (o *Builder) MovImm(dst Register, value uint32) *Builder {
	return o.append(Op{Kind: OpMovImm, Dst: dst, Value: value})
}

// MovAbs appends "mov dst, dword ptr [address]".
func (o *Builder) MovAbs(dst Register, address uint32) *Builder {
	return o.append(Op{Kind: OpMovAbs, Dst: dst, Value: address})
}

// MovRegOffset appends "mov dst, dword ptr [src+offset]".
func (o *Builder) MovRegOffset(dst Register, src Register, offset uint32) *Builder {
	return o.append(Op{Kind: OpMovRegOffset, Dst: dst, Src: src, Value: offset})
}

// MovReg appends "mov dst, src".
func (o *Builder) MovReg(dst Register, src Register) *Builder {
	return o.append(Op{Kind: OpMovReg, Dst: dst, Src: src})
}

// AddReg appends "add dst, src".
func (o *Builder) AddReg(dst Register, src Register) *Builder {
	return o.append(Op{Kind: OpAddReg, Dst: dst, Src: src})
}

// ImulImm appends "imul dst, src, value".
func (o *Builder) ImulImm(dst Register, src Register, value uint32) *Builder {
	return o.append(Op{Kind: OpImulImm, Dst: dst, Src: src, Value: value})
}

// StoreImm appends "mov dword ptr [base+disp], value".
func (o *Builder) StoreImm(base Register, disp uint32, value uint32) *Builder {
	return o.append(Op{Kind: OpStoreImm, Dst: base, Disp: disp, Value: value})
}

// PushReg appends "push r".
func (o *Builder) PushReg(r Register) *Builder {
	return o.append(Op{Kind: OpPushReg, Src: r})
}

// PopReg appends "pop r".
func (o *Builder) PopReg(r Register) *Builder {
	return o.append(Op{Kind: OpPopReg, Dst: r})
}

// PushImm appends "push value".
func (o *Builder) PushImm(value uint32) *Builder {
	return o.append(Op{Kind: OpPushImm, Value: value})
}

// PushInt is PushImm for signed values such as -1.
func (o *Builder) PushInt(value int32) *Builder {
	return o.PushImm(uint32(value))
}

// Call appends a near call to the routine at the absolute address
// routine. The displacement is patched by Finalize.
func (o *Builder) Call(routine uint32) *Builder {
	return o.append(Op{Kind: OpCall, Value: routine})
}

// Raw appends b unchanged.
func (o *Builder) Raw(b ...byte) *Builder {
	return o.append(Op{Kind: OpRaw, Raw: append([]byte(nil), b...)})
}

// RawHex appends bytes written as a C-style hex array,
// for example "0x90, 0x90".
func (o *Builder) RawHex(hexArray string) *Builder {
	if o.err != nil {
		return o
	}

	b, err := conv.HexArrayStringToBytes(hexArray)
	if err != nil {
		o.err = fmt.Errorf("failed to parse raw hex bytes - %w", err)
		return o
	}

	return o.Raw(b...)
}

// Dword appends value as four little endian bytes.
func (o *Builder) Dword(value uint32) *Builder {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, value)
	return o.append(Op{Kind: OpRaw, Raw: b})
}

// Ret appends "ret".
func (o *Builder) Ret() *Builder {
	return o.append(Op{Kind: OpRet})
}

func (o *Builder) append(op Op) *Builder {
	if o.err != nil {
		return o
	}

	if o.finalized {
		o.err = ErrFinalized
		return o
	}

	op.Offset = len(o.code)

	code, err := o.backend.Lower(op)
	if err != nil {
		o.err = fmt.Errorf("failed to lower %s operation %d - %w", op.Kind, len(o.ops), err)
		return o
	}

	if op.Kind == OpCall {
		o.fixups = append(o.fixups, fixup{
			offset: op.Offset,
			target: op.Value,
		})
	}

	o.ops = append(o.ops, op)
	o.code = append(o.code, code...)

	return o
}

// Len returns the current length of the code in bytes.
func (o *Builder) Len() int {
	return len(o.code)
}

// Ops returns a copy of the operations appended so far.
func (o *Builder) Ops() []Op {
	return append([]Op(nil), o.ops...)
}

// Err returns the first error encountered by the Builder.
func (o *Builder) Err() error {
	return o.err
}

// Finalize patches every call for loadAddress and returns the code.
func (o *Builder) Finalize(loadAddress uint32) ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}

	if o.finalized {
		return nil, ErrFinalized
	}

	o.finalized = true

	code := append([]byte(nil), o.code...)

	for _, f := range o.fixups {
		err := o.backend.Relocate(code, f.offset, f.target, loadAddress)
		if err != nil {
			o.err = fmt.Errorf("failed to relocate call at offset %d - %w", f.offset, err)
			return nil, o.err
		}
	}

	return code, nil
}

// FinalizeOrExit calls Finalize. DefaultExitFn is invoked if an
// error occurs.
func (o *Builder) FinalizeOrExit(loadAddress uint32) []byte {
	code, err := o.Finalize(loadAddress)
	if err != nil {
		DefaultExitFn(err)
	}
	return code
}
