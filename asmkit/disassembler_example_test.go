package asmkit_test

import (
	"fmt"
	"log"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
)

func ExampleDisassembler() {
	code, err := asmkit.NewBuilder().
		MovImm(asmkit.EAX, 3).
		PushReg(asmkit.EBP).
		PopReg(asmkit.EBP).
		Ret().
		Finalize(0)
	if err != nil {
		log.Fatalf("failed to build code - %v", err)
	}

	disass, err := asmkit.NewDisassembler(asmkit.DisassemblerConfig{
		Syntax: asmkit.IntelSyntax,
	})
	if err != nil {
		log.Fatalf("failed to create disassembler - %v", err)
	}

	err = disass.All(code, func(inst asmkit.Inst) error {
		fmt.Println(inst.Dis)
		return nil
	})
	if err != nil {
		log.Fatalf("disassembler failed - %v", err)
	}

	// Output:
	// mov eax, 0x3
	// push ebp
	// pop ebp
	// ret
}
