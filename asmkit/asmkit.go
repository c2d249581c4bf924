// Package asmkit builds and disassembles short sequences of native code.
//
// A Builder records abstract operations such as "push an immediate" or
// "call a routine" and lowers each one through a Backend as it is
// appended. Calls are encoded relative to the address the code will be
// loaded at, so their displacements are fixed up by Finalize once that
// address is known.
package asmkit

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrFinalized is returned when a Builder is used after Finalize.
	ErrFinalized = errors.New("builder has already been finalized")

	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// Register is a 32-bit general purpose register. The values match the
// register numbers used in x86 instruction encodings.
type Register uint8

const (
	EAX Register = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
)

var registerNames = [...]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}

func (o Register) String() string {
	if int(o) < len(registerNames) {
		return registerNames[o]
	}

	return fmt.Sprintf("Register(%d)", uint8(o))
}

// ParseRegister returns the Register with the given lower case name,
// for example "ecx".
func ParseRegister(name string) (Register, error) {
	for i, registerName := range registerNames {
		if registerName == name {
			return Register(i), nil
		}
	}

	return 0, fmt.Errorf("unknown register: %q", name)
}

func (o Register) valid() bool {
	return o <= EDI
}

// OpKind identifies an abstract operation.
type OpKind int

const (
	// OpMovImm loads Value into Dst.
	OpMovImm OpKind = iota

	// OpMovAbs loads the dword at the absolute address Value into Dst.
	OpMovAbs

	// OpMovRegOffset loads the dword at [Src+Value] into Dst.
	OpMovRegOffset

	// OpMovReg copies Src into Dst.
	OpMovReg

	// OpAddReg adds Src to Dst.
	OpAddReg

	// OpImulImm stores Src*Value in Dst.
	OpImulImm

	// OpStoreImm stores the dword Value at [Dst+Disp].
	OpStoreImm

	// OpPushReg pushes Src.
	OpPushReg

	// OpPopReg pops into Dst.
	OpPopReg

	// OpPushImm pushes Value.
	OpPushImm

	// OpCall calls the routine at the absolute address Value.
	OpCall

	// OpRaw appends Raw unchanged.
	OpRaw

	// OpRet returns to the caller.
	OpRet
)

var opKindNames = map[OpKind]string{
	OpMovImm:       "mov_imm",
	OpMovAbs:       "mov_abs",
	OpMovRegOffset: "mov_reg_offset",
	OpMovReg:       "mov_reg",
	OpAddReg:       "add_reg",
	OpImulImm:      "imul_imm",
	OpStoreImm:     "store_imm",
	OpPushReg:      "push_reg",
	OpPopReg:       "pop_reg",
	OpPushImm:      "push_imm",
	OpCall:         "call",
	OpRaw:          "raw",
	OpRet:          "ret",
}

func (o OpKind) String() string {
	name, ok := opKindNames[o]
	if !ok {
		return fmt.Sprintf("OpKind(%d)", int(o))
	}

	return name
}

// Op is one abstract operation.
type Op struct {
	Kind  OpKind
	Dst   Register
	Src   Register
	Value uint32
	Disp  uint32
	Raw   []byte

	// Offset is the position of the operation's code in the buffer.
	Offset int
}

// Backend lowers abstract operations into machine code.
type Backend interface {
	// Lower returns the code for op. For OpCall the displacement
	// is left as zero and patched later by Relocate.
	Lower(op Op) ([]byte, error)

	// Relocate patches the call whose code starts at offset in code,
	// so that it reaches target when code is loaded at loadAddress.
	Relocate(code []byte, offset int, target uint32, loadAddress uint32) error
}
