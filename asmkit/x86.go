package asmkit

import (
	"encoding/binary"
	"fmt"
)

const callLen = 5

// X86Backend lowers operations to 32-bit x86 code.
type X86Backend struct{}

func (o X86Backend) Lower(op Op) ([]byte, error) {
	switch op.Kind {
	case OpMovImm:
		if !op.Dst.valid() {
			return nil, fmt.Errorf("invalid destination register: %s", op.Dst)
		}

		// mov r32, imm32
		return append([]byte{0xb8 + byte(op.Dst)}, dword(op.Value)...), nil
	case OpMovAbs:
		if !op.Dst.valid() {
			return nil, fmt.Errorf("invalid destination register: %s", op.Dst)
		}

		// mov r32, dword ptr [disp32]
		return append([]byte{0x8b, modRM(0, byte(op.Dst), 5)}, dword(op.Value)...), nil
	case OpMovRegOffset:
		if !op.Dst.valid() || !op.Src.valid() {
			return nil, fmt.Errorf("invalid register in mov %s, [%s+0x%x]", op.Dst, op.Src, op.Value)
		}

		// mov r32, dword ptr [r32+disp32]
		code := []byte{0x8b, modRM(2, byte(op.Dst), byte(op.Src))}
		if op.Src == ESP {
			code = append(code, 0x24)
		}

		return append(code, dword(op.Value)...), nil
	case OpMovReg:
		if !op.Dst.valid() || !op.Src.valid() {
			return nil, fmt.Errorf("invalid register in mov %s, %s", op.Dst, op.Src)
		}

		// mov r32, r/m32
		return []byte{0x8b, modRM(3, byte(op.Dst), byte(op.Src))}, nil
	case OpAddReg:
		if !op.Dst.valid() || !op.Src.valid() {
			return nil, fmt.Errorf("invalid register in add %s, %s", op.Dst, op.Src)
		}

		// add r/m32, r32
		return []byte{0x01, modRM(3, byte(op.Src), byte(op.Dst))}, nil
	case OpImulImm:
		if !op.Dst.valid() || !op.Src.valid() {
			return nil, fmt.Errorf("invalid register in imul %s, %s", op.Dst, op.Src)
		}

		// imul r32, r/m32, imm32
		return append([]byte{0x69, modRM(3, byte(op.Dst), byte(op.Src))}, dword(op.Value)...), nil
	case OpStoreImm:
		if !op.Dst.valid() || op.Dst == ESP || op.Dst == EBP {
			return nil, fmt.Errorf("unsupported base register for store: %s", op.Dst)
		}

		// mov dword ptr [r32+disp], imm32
		disp := int32(op.Disp)
		if disp >= -128 && disp <= 127 {
			code := []byte{0xc7, modRM(1, 0, byte(op.Dst)), byte(int8(disp))}
			return append(code, dword(op.Value)...), nil
		}

		code := append([]byte{0xc7, modRM(2, 0, byte(op.Dst))}, dword(op.Disp)...)
		return append(code, dword(op.Value)...), nil
	case OpPushReg:
		if !op.Src.valid() {
			return nil, fmt.Errorf("invalid source register: %s", op.Src)
		}

		return []byte{0x50 + byte(op.Src)}, nil
	case OpPopReg:
		if !op.Dst.valid() {
			return nil, fmt.Errorf("invalid destination register: %s", op.Dst)
		}

		return []byte{0x58 + byte(op.Dst)}, nil
	case OpPushImm:
		return append([]byte{0x68}, dword(op.Value)...), nil
	case OpCall:
		// call rel32, displacement patched by Relocate.
		return []byte{0xe8, 0, 0, 0, 0}, nil
	case OpRaw:
		return append([]byte(nil), op.Raw...), nil
	case OpRet:
		return []byte{0xc3}, nil
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op.Kind)
	}
}

func (o X86Backend) Relocate(code []byte, offset int, target uint32, loadAddress uint32) error {
	if offset < 0 || offset+callLen > len(code) {
		return fmt.Errorf("call at offset %d is outside of the %d byte buffer", offset, len(code))
	}

	if code[offset] != 0xe8 {
		return fmt.Errorf("expected call opcode at offset %d - got 0x%x", offset, code[offset])
	}

	displacement := target - (loadAddress + uint32(offset) + callLen)

	binary.LittleEndian.PutUint32(code[offset+1:], displacement)

	return nil
}

func modRM(mod byte, reg byte, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | rm&7
}

func dword(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
