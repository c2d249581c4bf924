package asmkit

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

const (
	SkipSyntax  DisassemblySyntax = ""
	ATTSyntax   DisassemblySyntax = "att"
	GoSyntax    DisassemblySyntax = "go"
	IntelSyntax DisassemblySyntax = "intel"
)

type DisassemblySyntax string

type DisassemblerConfig struct {
	Syntax DisassemblySyntax

	// Bits is the x86 mode. It defaults to 32.
	Bits int

	// Origin is the address the code is loaded at. When non-zero,
	// relative branch targets are printed as absolute addresses.
	Origin uint32
}

func NewDisassembler(config DisassemblerConfig) (*Disassembler, error) {
	bits := config.Bits
	if bits == 0 {
		bits = 32
	}

	switch bits {
	case 16, 32, 64:
	default:
		return nil, fmt.Errorf("unsupported x86 mode: %d bits", bits)
	}

	var disassemblyFn func(inst x86asm.Inst, pc uint64) string
	switch config.Syntax {
	case SkipSyntax:
		// Do nothing.
	case ATTSyntax:
		disassemblyFn = func(inst x86asm.Inst, pc uint64) string {
			return x86asm.GNUSyntax(inst, pc, nil)
		}
	case GoSyntax:
		disassemblyFn = func(inst x86asm.Inst, pc uint64) string {
			return x86asm.GoSyntax(inst, pc, nil)
		}
	case IntelSyntax:
		disassemblyFn = func(inst x86asm.Inst, pc uint64) string {
			return x86asm.IntelSyntax(inst, pc, nil)
		}
	default:
		return nil, fmt.Errorf("unsupported syntax type for x86: %q", config.Syntax)
	}

	return &Disassembler{
		origin: config.Origin,
		disassOneInstFn: func(remainingInsts []byte, index int) (Inst, error) {
			x86Inst, err := x86asm.Decode(remainingInsts, bits)
			if err != nil {
				return Inst{}, err
			}

			var disassembly string
			if disassemblyFn != nil {
				var pc uint64
				if config.Origin != 0 {
					pc = uint64(config.Origin) + uint64(index)
				}

				disassembly = disassemblyFn(x86Inst, pc)
			}

			return Inst{
				Bin:   copySlice(remainingInsts, x86Inst.Len),
				Len:   x86Inst.Len,
				Index: index,
				Dis:   disassembly,
				Inst:  x86Inst,
			}, nil
		},
	}, nil
}

func copySlice(src []byte, numBytes int) []byte {
	cp := make([]byte, numBytes)

	copy(cp, src[0:numBytes])

	return cp
}

type Disassembler struct {
	origin          uint32
	disassOneInstFn func(remainingInsts []byte, index int) (Inst, error)
}

// All decodes every instruction in rawInstructions and passes each
// one to onDecodeFn.
func (o *Disassembler) All(rawInstructions []byte, onDecodeFn func(Inst) error) error {
	index := 0

	for index < len(rawInstructions) {
		inst, err := o.disassOneInstFn(rawInstructions[index:], index)
		if err != nil {
			return fmt.Errorf("failed to decode instruction at offset %d - %w - remaining data: 0x%x",
				index, err, rawInstructions[index:])
		}

		err = onDecodeFn(inst)
		if err != nil {
			return fmt.Errorf("on decode function failed for instruction at offset %d (%q) - %w",
				index, inst.Dis, err)
		}

		index += inst.Len
	}

	return nil
}

// Next decodes the first instruction in rawInstructions.
func (o *Disassembler) Next(rawInstructions []byte) (Inst, error) {
	return o.disassOneInstFn(rawInstructions, 0)
}

// Listing returns one line per instruction containing its address,
// its encoding and its disassembly.
func (o *Disassembler) Listing(rawInstructions []byte) (string, error) {
	var sb strings.Builder

	err := o.All(rawInstructions, func(inst Inst) error {
		_, err := fmt.Fprintf(&sb, "%08x  %-20x  %s\n",
			o.origin+uint32(inst.Index), inst.Bin, inst.Dis)
		return err
	})
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

type Inst struct {
	Bin   []byte
	Len   int
	Index int
	Dis   string
	Inst  x86asm.Inst
}
