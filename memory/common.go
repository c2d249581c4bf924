package memory

import "log"

// Reader reads raw bytes from the address space of a target process.
type Reader interface {
	// ReadMemory reads size bytes starting at address.
	ReadMemory(address uint32, size int) ([]byte, error)
}

// Writer writes raw bytes into the address space of a target process.
type Writer interface {
	// WriteMemory writes p starting at address.
	WriteMemory(address uint32, p []byte) error
}

// ReadWriter groups the Reader and Writer interfaces.
type ReadWriter interface {
	Reader
	Writer
}

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)
