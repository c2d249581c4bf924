// Package hack toggles byte-level patches in a target process.
//
// A Record pairs the bytes the target ships with (Original) with the
// bytes that change its behavior (Replacement). A Patch is an ordered
// list of Records that are toggled together. Applying a Patch is a
// plain overwrite: no enabled or disabled state is kept, so applying
// the same state twice leaves the target unchanged. Use a Tracker when
// redundant writes should be skipped.
package hack

import (
	"errors"
	"fmt"
	"log"

	"gitlab.com/stephen-fox/pvzkit/memory"
)

// ErrPatchWrite is matched by errors returned when a Record could
// not be written.
var ErrPatchWrite = errors.New("failed to write patch")

// Record is one contiguous patch.
type Record struct {
	Address     uint32
	Original    []byte
	Replacement []byte
}

// Validate checks that Original and Replacement have the same
// non-zero length.
func (o Record) Validate() error {
	if len(o.Replacement) == 0 {
		return fmt.Errorf("record at 0x%x has no replacement bytes", o.Address)
	}

	if len(o.Original) != len(o.Replacement) {
		return fmt.Errorf("record at 0x%x has %d original bytes but %d replacement bytes",
			o.Address, len(o.Original), len(o.Replacement))
	}

	return nil
}

// Bytes returns the bytes written for the given state.
func (o Record) Bytes(enable bool) []byte {
	if enable {
		return o.Replacement
	}

	return o.Original
}

// Patch is a list of Records applied in order as one toggle.
type Patch []Record

// Validate validates every Record.
func (o Patch) Validate() error {
	for i, record := range o {
		err := record.Validate()
		if err != nil {
			return fmt.Errorf("record %d is invalid - %w", i, err)
		}
	}

	return nil
}

// WriteError describes the Record that failed to apply. Records
// before Index were written and stay applied.
type WriteError struct {
	Index   int
	Address uint32
	Err     error
}

func (o *WriteError) Error() string {
	return fmt.Sprintf("failed to write patch record %d at 0x%x - %s",
		o.Index, o.Address, o.Err)
}

func (o *WriteError) Unwrap() error {
	return o.Err
}

func (o *WriteError) Is(target error) bool {
	return target == ErrPatchWrite
}

// Apply writes the replacement bytes of every Record in p when enable
// is true, and the original bytes otherwise. It stops at the first
// failed write and returns a *WriteError.
func Apply(w memory.Writer, p Patch, enable bool) error {
	return apply(w, p, enable, nil)
}

func apply(w memory.Writer, p Patch, enable bool, logger *log.Logger) error {
	for i, record := range p {
		err := w.WriteMemory(record.Address, record.Bytes(enable))
		if err != nil {
			return &WriteError{
				Index:   i,
				Address: record.Address,
				Err:     err,
			}
		}

		if logger != nil {
			logger.Printf("wrote 0x%x at 0x%x", record.Bytes(enable), record.Address)
		}
	}

	return nil
}

// ApplyOrExit calls Apply. DefaultExitFn is invoked if an error occurs.
func ApplyOrExit(w memory.Writer, p Patch, enable bool) {
	err := Apply(w, p, enable)
	if err != nil {
		DefaultExitFn(err)
	}
}

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)
