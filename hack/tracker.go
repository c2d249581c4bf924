package hack

import (
	"log"
	"sync"

	"gitlab.com/stephen-fox/pvzkit/memory"
)

// NewTracker returns a Tracker that writes to w.
func NewTracker(w memory.Writer) *Tracker {
	return &Tracker{
		w:     w,
		state: make(map[string]bool),
	}
}

// Tracker applies named Patches and remembers the last state that was
// successfully applied to each name. Applying the remembered state
// again is skipped.
//
// The remembered state describes what the Tracker wrote, not what the
// target currently contains. Call Forget after the target restarts.
type Tracker struct {
	w     memory.Writer
	mu    sync.Mutex
	state map[string]bool

	// Logger, if set, logs every write and every skipped apply.
	Logger *log.Logger
}

// Apply applies p under name unless the Tracker already applied
// the same state. A failed apply forgets the state of name, since
// some Records may have been written.
func (o *Tracker) Apply(name string, p Patch, enable bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	last, known := o.state[name]
	if known && last == enable {
		if o.Logger != nil {
			o.Logger.Printf("skipping %s - already %s", name, stateName(enable))
		}

		return nil
	}

	err := apply(o.w, p, enable, o.Logger)
	if err != nil {
		delete(o.state, name)
		return err
	}

	o.state[name] = enable

	return nil
}

// State returns the last state applied under name.
func (o *Tracker) State(name string) (enabled bool, known bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	enabled, known = o.state[name]
	return enabled, known
}

// Forget clears every remembered state.
func (o *Tracker) Forget() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = make(map[string]bool)
}

func stateName(enable bool) string {
	if enable {
		return "enabled"
	}

	return "disabled"
}
