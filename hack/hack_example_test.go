package hack_test

import (
	"fmt"
	"log"

	"gitlab.com/stephen-fox/pvzkit/hack"
	"gitlab.com/stephen-fox/pvzkit/process"
	"gitlab.com/stephen-fox/pvzkit/process/processtest"
)

func ExampleApply() {
	autoCollect := hack.Patch{
		{Address: 0x43158f, Original: []byte{0x75}, Replacement: []byte{0xeb}},
	}

	target := processtest.NewTarget(process.Info{}).Put(0x43158f, []byte{0x75})

	err := hack.Apply(target, autoCollect, true)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("0x%x\n", target.Bytes(0x43158f, 1))

	// Output: 0xeb
}
