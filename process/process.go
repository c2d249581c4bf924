package process

import (
	"errors"
	"fmt"
)

var (
	// ErrExited is returned by Target methods once the target
	// process is gone.
	ErrExited = errors.New("target process has exited")

	// ErrUnsupportedPlatform is returned by the system Prober on
	// operating systems that the target does not run on.
	ErrUnsupportedPlatform = errors.New("attaching to processes is not supported on this platform")
)

// Info identifies an attached process.
type Info struct {
	// Title is the title of the window the process was found by.
	Title string

	PID uint32

	// ProductName and OriginalFilename come from the version
	// resource of the process' executable.
	ProductName      string
	OriginalFilename string

	// FileVersion is the dotted file version of the executable,
	// for example "1.0.0.1051".
	FileVersion string
}

func (o Info) String() string {
	return fmt.Sprintf("%q (pid %d, %s %s)",
		o.Title, o.PID, o.OriginalFilename, o.FileVersion)
}

// Target is an attached process whose memory can be read and written,
// and which can execute code placed in a Scratch region.
type Target interface {
	// Info returns the identity of the process.
	Info() Info

	// IsAlive reports whether the process is still running.
	IsAlive() bool

	// ReadMemory reads size bytes at address.
	ReadMemory(address uint32, size int) ([]byte, error)

	// WriteMemory writes p at address.
	WriteMemory(address uint32, p []byte) error

	// AllocScratch allocates an executable region of at
	// least size bytes.
	AllocScratch(size int) (Scratch, error)

	// Execute runs the code at entry on a thread of the process
	// and blocks until the code returns.
	Execute(entry uint32) error

	// Close releases the process. The process itself keeps running.
	Close() error
}

// Scratch is a writable and executable region of a Target's memory.
type Scratch interface {
	Address() uint32
	Size() int
	Free() error
}

// Prober finds a process by the class and title of its main window.
type Prober interface {
	// Probe looks for a window with the given class and title.
	// An empty title matches any window of the class.
	//
	// found is false if no window exists. If a window exists but its
	// process cannot be opened, found is true and a non-nil error
	// is returned.
	Probe(class string, title string) (target Target, found bool, err error)
}
