// Package processtest provides an in-memory process.Target for tests
// and offline use.
package processtest

import (
	"encoding/binary"
	"fmt"
	"sync"

	"gitlab.com/stephen-fox/pvzkit/process"
)

// DefaultScratchBase is where the first scratch region of a Target
// is placed.
const DefaultScratchBase = 0x10000000

// Write is one call to Target.WriteMemory.
type Write struct {
	Address uint32
	Data    []byte
}

// Execution is one call to Target.Execute.
type Execution struct {
	Entry uint32

	// Code is the content of the scratch region containing Entry,
	// starting at Entry, at the time of the call.
	Code []byte
}

// NewTarget returns a live Target with an empty address space.
func NewTarget(info process.Info) *Target {
	return &Target{
		info:        info,
		memory:      make(map[uint32]byte),
		alive:       true,
		nextScratch: DefaultScratchBase,
		failWrites:  make(map[uint32]error),
	}
}

// Target is a fake process. Reads of addresses that were never written
// fail. Writes succeed unless FailWritesAt was called for an address
// they touch.
type Target struct {
	mu          sync.Mutex
	info        process.Info
	memory      map[uint32]byte
	alive       bool
	closed      bool
	nextScratch uint32
	scratches   []*scratch
	failWrites  map[uint32]error
	writes      []Write
	executions  []Execution

	// OnExecute, if set, is called by Execute. Its error
	// is returned by Execute.
	OnExecute func(t *Target, execution Execution) error
}

func (o *Target) Info() process.Info {
	return o.info
}

func (o *Target) IsAlive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.alive
}

// Kill marks the target as exited.
func (o *Target) Kill() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.alive = false
}

// Closed reports whether Close was called.
func (o *Target) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.closed
}

func (o *Target) ReadMemory(address uint32, size int) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.alive {
		return nil, process.ErrExited
	}

	return o.read(address, size)
}

func (o *Target) read(address uint32, size int) ([]byte, error) {
	out := make([]byte, size)
	for i := range out {
		b, ok := o.memory[address+uint32(i)]
		if !ok {
			return nil, fmt.Errorf("address 0x%x is not mapped", address+uint32(i))
		}
		out[i] = b
	}

	return out, nil
}

func (o *Target) WriteMemory(address uint32, p []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.alive {
		return process.ErrExited
	}

	for i := range p {
		err, fail := o.failWrites[address+uint32(i)]
		if fail {
			return fmt.Errorf("failed to write at 0x%x - %w", address+uint32(i), err)
		}
	}

	o.put(address, p)

	o.writes = append(o.writes, Write{
		Address: address,
		Data:    append([]byte(nil), p...),
	})

	return nil
}

func (o *Target) put(address uint32, p []byte) {
	for i, b := range p {
		o.memory[address+uint32(i)] = b
	}
}

func (o *Target) AllocScratch(size int) (process.Scratch, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.alive {
		return nil, process.ErrExited
	}

	s := &scratch{
		target: o,
		addr:   o.nextScratch,
		size:   size,
	}

	o.put(s.addr, make([]byte, size))

	o.nextScratch += uint32(size+0xfff) &^ 0xfff
	o.scratches = append(o.scratches, s)

	return s, nil
}

func (o *Target) Execute(entry uint32) error {
	o.mu.Lock()

	if !o.alive {
		o.mu.Unlock()
		return process.ErrExited
	}

	execution := Execution{Entry: entry}

	for _, s := range o.scratches {
		if !s.freed && entry >= s.addr && entry < s.addr+uint32(s.size) {
			execution.Code, _ = o.read(entry, int(s.addr+uint32(s.size)-entry))
			break
		}
	}

	o.executions = append(o.executions, execution)
	onExecute := o.OnExecute

	o.mu.Unlock()

	if onExecute != nil {
		return onExecute(o, execution)
	}

	return nil
}

func (o *Target) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true

	return nil
}

// Put stores p at address without recording a Write.
func (o *Target) Put(address uint32, p []byte) *Target {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.put(address, p)

	return o
}

// PutUint32 stores a little endian uint32 at address.
func (o *Target) PutUint32(address uint32, v uint32) *Target {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return o.Put(address, b)
}

// Map stores size zero bytes at address.
func (o *Target) Map(address uint32, size int) *Target {
	return o.Put(address, make([]byte, size))
}

// Bytes returns size bytes at address. Unmapped bytes read as zero.
func (o *Target) Bytes(address uint32, size int) []byte {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]byte, size)
	for i := range out {
		out[i] = o.memory[address+uint32(i)]
	}

	return out
}

// Uint32 returns the little endian uint32 at address.
func (o *Target) Uint32(address uint32) uint32 {
	return binary.LittleEndian.Uint32(o.Bytes(address, 4))
}

// FailWritesAt makes every write touching address fail with err.
func (o *Target) FailWritesAt(address uint32, err error) *Target {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.failWrites[address] = err

	return o
}

// Writes returns every successful write, in order.
func (o *Target) Writes() []Write {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]Write(nil), o.writes...)
}

// Executions returns every call to Execute, in order.
func (o *Target) Executions() []Execution {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]Execution(nil), o.executions...)
}

// LiveScratches returns the number of scratch regions that have
// not been freed.
func (o *Target) LiveScratches() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	live := 0
	for _, s := range o.scratches {
		if !s.freed {
			live++
		}
	}

	return live
}

type scratch struct {
	target *Target
	addr   uint32
	size   int
	freed  bool
}

func (o *scratch) Address() uint32 {
	return o.addr
}

func (o *scratch) Size() int {
	return o.size
}

func (o *scratch) Free() error {
	o.target.mu.Lock()
	defer o.target.mu.Unlock()

	if o.freed {
		return fmt.Errorf("scratch region at 0x%x is already free", o.addr)
	}

	o.freed = true

	return nil
}

// Prober is a fake process.Prober backed by a table of windows.
type Prober struct {
	// Windows maps window titles to the processes that own them.
	// The empty title is matched by the untitled probe.
	Windows map[string]*Target

	// OpenErr, if set, is returned for every window that is found.
	OpenErr error

	probes []string
}

func (o *Prober) Probe(class string, title string) (process.Target, bool, error) {
	o.probes = append(o.probes, title)

	target, found := o.Windows[title]
	if !found {
		return nil, false, nil
	}

	if o.OpenErr != nil {
		return nil, true, o.OpenErr
	}

	return target, true, nil
}

// Probes returns the titles that were probed, in order.
func (o *Prober) Probes() []string {
	return append([]string(nil), o.probes...)
}
