// Package inject runs synthesized code inside a target process.
//
// An Injector enables a guard patch that pauses the target's main loop,
// writes finalized code into a scratch region, executes it, and then
// disables the guard again. The guard is released on every path,
// including failed writes and failed executions. Only one injection
// runs at a time per Injector.
package inject

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/hack"
	"gitlab.com/stephen-fox/pvzkit/process"
)

// DefaultSettleDelay is how long the Injector waits after enabling
// the guard, so that the paused loop reaches the guard.
const DefaultSettleDelay = 10 * time.Millisecond

// ErrInjection is matched by every error returned by Inject and Run.
var ErrInjection = errors.New("code injection failed")

// State is a step of an injection.
type State int

const (
	Idle State = iota
	GuardEnabled
	BufferWritten
	Executing
	Completed
	GuardDisabled
)

var stateNames = [...]string{
	"idle",
	"guard_enabled",
	"buffer_written",
	"executing",
	"completed",
	"guard_disabled",
}

func (o State) String() string {
	if o >= 0 && int(o) < len(stateNames) {
		return stateNames[o]
	}

	return fmt.Sprintf("State(%d)", int(o))
}

// Stage names the step of an injection that failed.
type Stage string

const (
	StageAlloc    Stage = "alloc"
	StageGuard    Stage = "enable_guard"
	StageFinalize Stage = "finalize"
	StageWrite    Stage = "write"
	StageExecute  Stage = "execute"
	StageRelease  Stage = "disable_guard"
	StageFree     Stage = "free"
)

// Error describes a failed injection.
type Error struct {
	Stage Stage
	Err   error
}

func (o *Error) Error() string {
	return fmt.Sprintf("failed to inject code at stage %s - %s", o.Stage, o.Err)
}

func (o *Error) Unwrap() error {
	return o.Err
}

func (o *Error) Is(target error) bool {
	return target == ErrInjection
}

// Config configures an Injector.
type Config struct {
	// Target is the process the code runs in.
	Target process.Target

	// Guard pauses the target's main loop while enabled.
	Guard hack.Patch

	// SettleDelay is waited after enabling the guard. Zero
	// means DefaultSettleDelay. A negative value disables it.
	SettleDelay time.Duration

	// Disassembler, if set together with Logger, is used to log
	// a listing of every injected buffer.
	Disassembler *asmkit.Disassembler

	Logger *log.Logger

	// OnState, if set, is called on every state transition, after
	// the new state is visible through Injector.State.
	OnState func(State)
}

// New returns an Injector for config.Target.
func New(config Config) (*Injector, error) {
	if config.Target == nil {
		return nil, fmt.Errorf("target cannot be nil")
	}

	if len(config.Guard) == 0 {
		return nil, fmt.Errorf("guard patch cannot be empty")
	}

	err := config.Guard.Validate()
	if err != nil {
		return nil, fmt.Errorf("guard patch is invalid - %w", err)
	}

	if config.SettleDelay == 0 {
		config.SettleDelay = DefaultSettleDelay
	}

	return &Injector{
		config: config,
		state:  Idle,
	}, nil
}

// Injector injects code into one target.
type Injector struct {
	config Config
	mu     sync.Mutex

	stateMu sync.Mutex
	state   State
}

// State returns the current state. It does not wait for a running
// injection and may be called from Config.OnState.
func (o *Injector) State() State {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	return o.state
}

func (o *Injector) setState(state State) {
	o.stateMu.Lock()
	o.state = state
	o.stateMu.Unlock()

	if o.config.OnState != nil {
		o.config.OnState(state)
	}
}

// Run allocates a scratch region sized for builder, injects the
// builder's code into it and frees the region.
func (o *Injector) Run(builder *asmkit.Builder) error {
	if builder.Err() != nil {
		return &Error{Stage: StageFinalize, Err: builder.Err()}
	}

	region, err := o.config.Target.AllocScratch(builder.Len())
	if err != nil {
		return &Error{Stage: StageAlloc, Err: err}
	}

	injectErr := o.Inject(region, builder)

	err = region.Free()
	if err != nil && injectErr == nil {
		return &Error{Stage: StageFree, Err: err}
	}

	return injectErr
}

// Inject finalizes builder for region, then runs it with the guard
// enabled. It blocks until the code returns.
func (o *Injector) Inject(region process.Scratch, builder *asmkit.Builder) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	code, err := builder.Finalize(region.Address())
	if err != nil {
		return &Error{Stage: StageFinalize, Err: err}
	}

	if len(code) > region.Size() {
		return &Error{
			Stage: StageFinalize,
			Err: fmt.Errorf("code is %d bytes but the scratch region is %d bytes",
				len(code), region.Size()),
		}
	}

	err = hack.Apply(o.config.Target, o.config.Guard, true)
	if err != nil {
		// Some guard records may have been written.
		releaseErr := hack.Apply(o.config.Target, o.config.Guard, false)
		if releaseErr != nil && o.config.Logger != nil {
			o.config.Logger.Printf("failed to release partially enabled guard - %s", releaseErr)
		}

		return &Error{Stage: StageGuard, Err: err}
	}

	o.setState(GuardEnabled)

	defer func() {
		releaseErr := hack.Apply(o.config.Target, o.config.Guard, false)
		if releaseErr != nil && err == nil {
			err = &Error{Stage: StageRelease, Err: releaseErr}
		}

		o.setState(GuardDisabled)
		o.setState(Idle)
	}()

	if o.config.SettleDelay > 0 {
		time.Sleep(o.config.SettleDelay)
	}

	err = o.config.Target.WriteMemory(region.Address(), code)
	if err != nil {
		return &Error{Stage: StageWrite, Err: err}
	}

	o.setState(BufferWritten)

	if o.config.Logger != nil {
		o.logListing(region.Address(), code)
	}

	o.setState(Executing)

	err = o.config.Target.Execute(region.Address())
	if err != nil {
		return &Error{Stage: StageExecute, Err: err}
	}

	o.setState(Completed)

	return nil
}

func (o *Injector) logListing(address uint32, code []byte) {
	if o.config.Disassembler == nil {
		o.config.Logger.Printf("executing %d bytes at 0x%x: 0x%x", len(code), address, code)
		return
	}

	listing, err := o.config.Disassembler.Listing(code)
	if err != nil {
		o.config.Logger.Printf("failed to disassemble injected code - %s", err)
		return
	}

	o.config.Logger.Printf("executing %d bytes at 0x%x:\n%s", len(code), address, listing)
}
