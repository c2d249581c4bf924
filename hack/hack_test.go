package hack

import (
	"bytes"
	"errors"
	"testing"

	"gitlab.com/stephen-fox/pvzkit/process"
	"gitlab.com/stephen-fox/pvzkit/process/processtest"
)

func testPatch() Patch {
	return Patch{
		{Address: 0x43158f, Original: []byte{0x75}, Replacement: []byte{0xeb}},
		{Address: 0x4352f2, Original: []byte{0x75, 0x08}, Replacement: []byte{0x90, 0x90}},
	}
}

func newTestTarget(p Patch) *processtest.Target {
	target := processtest.NewTarget(process.Info{})
	for _, record := range p {
		target.Put(record.Address, record.Original)
	}
	return target
}

func TestApply_EnableThenDisable(t *testing.T) {
	p := testPatch()
	target := newTestTarget(p)

	err := Apply(target, p, true)
	if err != nil {
		t.Fatal(err)
	}

	for _, record := range p {
		b := target.Bytes(record.Address, len(record.Replacement))
		if !bytes.Equal(b, record.Replacement) {
			t.Fatalf("expected 0x%x at 0x%x - got 0x%x", record.Replacement, record.Address, b)
		}
	}

	err = Apply(target, p, false)
	if err != nil {
		t.Fatal(err)
	}

	for _, record := range p {
		b := target.Bytes(record.Address, len(record.Original))
		if !bytes.Equal(b, record.Original) {
			t.Fatalf("expected 0x%x at 0x%x - got 0x%x", record.Original, record.Address, b)
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	p := testPatch()
	once := newTestTarget(p)
	twice := newTestTarget(p)

	ApplyOrExit(once, p, true)
	ApplyOrExit(twice, p, true)
	ApplyOrExit(twice, p, true)

	for _, record := range p {
		a := once.Bytes(record.Address, len(record.Original))
		b := twice.Bytes(record.Address, len(record.Original))
		if !bytes.Equal(a, b) {
			t.Fatalf("expected 0x%x at 0x%x - got 0x%x", a, record.Address, b)
		}
	}
}

func TestApply_PartialFailure(t *testing.T) {
	errBoom := errors.New("boom")
	p := testPatch()
	target := newTestTarget(p).FailWritesAt(p[1].Address, errBoom)

	err := Apply(target, p, true)
	if !errors.Is(err, ErrPatchWrite) {
		t.Fatalf("expected ErrPatchWrite - got %v", err)
	}

	if !errors.Is(err, errBoom) {
		t.Fatalf("expected the underlying error to be wrapped - got %v", err)
	}

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected a *WriteError - got %T", err)
	}

	if writeErr.Index != 1 || writeErr.Address != p[1].Address {
		t.Fatalf("expected record 1 at 0x%x - got record %d at 0x%x",
			p[1].Address, writeErr.Index, writeErr.Address)
	}

	b := target.Bytes(p[0].Address, 1)
	if !bytes.Equal(b, p[0].Replacement) {
		t.Fatalf("expected the first record to stay applied - got 0x%x", b)
	}
}

func TestPatch_Validate(t *testing.T) {
	err := testPatch().Validate()
	if err != nil {
		t.Fatal(err)
	}

	bad := Patch{{Address: 1, Original: []byte{1}, Replacement: []byte{1, 2}}}
	err = bad.Validate()
	if err == nil {
		t.Fatal("expected an error for mismatched record lengths")
	}

	empty := Patch{{Address: 1}}
	err = empty.Validate()
	if err == nil {
		t.Fatal("expected an error for an empty record")
	}
}

func TestTracker_SkipsRedundantWrites(t *testing.T) {
	p := testPatch()
	target := newTestTarget(p)
	tracker := NewTracker(target)

	for i := 0; i < 3; i++ {
		err := tracker.Apply("auto_collect", p, true)
		if err != nil {
			t.Fatal(err)
		}
	}

	if len(target.Writes()) != len(p) {
		t.Fatalf("expected %d writes - got %d", len(p), len(target.Writes()))
	}

	enabled, known := tracker.State("auto_collect")
	if !enabled || !known {
		t.Fatalf("expected known enabled state - got enabled=%t known=%t", enabled, known)
	}

	err := tracker.Apply("auto_collect", p, false)
	if err != nil {
		t.Fatal(err)
	}

	if len(target.Writes()) != 2*len(p) {
		t.Fatalf("expected %d writes - got %d", 2*len(p), len(target.Writes()))
	}
}

func TestTracker_ForgetsFailedApply(t *testing.T) {
	p := testPatch()
	target := newTestTarget(p).FailWritesAt(p[1].Address, errors.New("boom"))
	tracker := NewTracker(target)

	err := tracker.Apply("x", p, true)
	if err == nil {
		t.Fatal("expected an error")
	}

	_, known := tracker.State("x")
	if known {
		t.Fatal("expected the state of a failed apply to be unknown")
	}
}
