package conv

import (
	"bytes"
	"fmt"
	"log"
)

func ExampleHexArrayToBytes() {
	// Replacement bytes for a patch, copied from a listing.
	cArrayContents := []byte(
		`/* mov ax, 0x33 */
0x66, 0xb8, 0x33, 0x00 // four bytes
`)

	patchBytes, err := HexArrayToBytes(bytes.NewReader(cArrayContents))
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("0x%x\n", patchBytes)

	// Output: 0x66b83300
}

func ExampleBytesToHexArray() {
	fmt.Println(BytesToHexArray([]byte{0x90, 0xe9}))

	// Output: 0x90, 0xe9
}
