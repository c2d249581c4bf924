// Package trainer implements the feature operations of the trainer on
// top of an attached target.
//
// A Session owns the attachment. Every feature first checks that the
// target is alive and, if it is not, resolves the target again. When
// no supported target is available, or when the game is not in a state
// the feature applies to, the feature does nothing and returns nil.
// Getters such as Lineup return ErrTargetUnavailable instead.
package trainer

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/hack"
	"gitlab.com/stephen-fox/pvzkit/inject"
	"gitlab.com/stephen-fox/pvzkit/memory"
	"gitlab.com/stephen-fox/pvzkit/process"
	"gitlab.com/stephen-fox/pvzkit/profile"
)

var (
	// ErrProfileUnresolved means a target window was found but no
	// build profile could be fixed for it.
	ErrProfileUnresolved = errors.New("target profile is unresolved")

	// ErrUnsupportedBuild means the target was identified but its
	// build matches no known signature.
	ErrUnsupportedBuild = errors.New("target build is not supported")

	// ErrTargetUnavailable means no live target is attached, or the
	// game is not in a state where the operation applies.
	ErrTargetUnavailable = errors.New("target is unavailable")

	// ErrSceneMismatch is returned by SetLineup when the lineup was
	// made for a different scene than the current one.
	ErrSceneMismatch = errors.New("lineup scene does not match the current scene")
)

var (
	// DefaultExitFn is invoked by the OrExit functions when
	// an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// Config configures a Session.
type Config struct {
	// Catalog is the set of known builds. It defaults to
	// profile.Default.
	Catalog *profile.Catalog

	// Prober finds the target's window.
	Prober process.Prober

	// SettleDelay is passed to the injector. See inject.Config.
	SettleDelay time.Duration

	// Disassembler, if set together with Logger, logs a listing
	// of injected code.
	Disassembler *asmkit.Disassembler

	Logger *log.Logger

	// OnUnsupported, if set, is called once per process when the
	// target's build is not supported.
	OnUnsupported func(process.Info)

	// Rand is used by CustomizeSpawn. It defaults to a source
	// seeded with the current time.
	Rand *rand.Rand

	// TrackPatches skips writing patches that are already in the
	// requested state. See hack.Tracker.
	TrackPatches bool
}

// New returns a Session. It does not attach to the target; that
// happens on the first feature call or on Attach.
func New(config Config) (*Session, error) {
	if config.Prober == nil {
		return nil, fmt.Errorf("prober cannot be nil")
	}

	if config.Catalog == nil {
		catalog, err := profile.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load default profiles - %w", err)
		}

		config.Catalog = catalog
	}

	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Session{
		config: config,
	}, nil
}

// NewOrExit calls New. DefaultExitFn is invoked if an error occurs.
func NewOrExit(config Config) *Session {
	s, err := New(config)
	if err != nil {
		DefaultExitFn(err)
	}
	return s
}

// Session is the attachment to one target process at a time. It is
// meant to be driven by one goroutine.
type Session struct {
	config Config

	mu              sync.Mutex
	target          process.Target
	profile         *profile.Profile
	code            Code
	resolver        *memory.Resolver
	injector        *inject.Injector
	tracker         *hack.Tracker
	reportedUnsupID uint32
	reportedUnsup   bool
}

// Attach makes sure a live, supported target is attached. An attached
// target that exited is released and the target is resolved again.
//
// The returned error matches ErrTargetUnavailable, ErrUnsupportedBuild
// or ErrProfileUnresolved.
func (o *Session) Attach() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.target != nil {
		if o.target.IsAlive() {
			return nil
		}

		o.logf("target exited, resolving again")

		o.detach()
	}

	res, err := o.config.Catalog.Resolve(o.config.Prober)
	if err != nil {
		return fmt.Errorf("%w - %w", ErrTargetUnavailable, err)
	}

	switch res.Status {
	case profile.Resolved:
	case profile.Unsupported:
		o.reportUnsupported(res.Info)
		return fmt.Errorf("%w: %s", ErrUnsupportedBuild, res.Info)
	case profile.OpenFailed:
		return fmt.Errorf("%w - failed to open target - %w", ErrProfileUnresolved, res.Err)
	default:
		return ErrTargetUnavailable
	}

	injector, err := inject.New(inject.Config{
		Target:       res.Target,
		Guard:        res.Profile.Guard(),
		SettleDelay:  o.config.SettleDelay,
		Disassembler: o.config.Disassembler,
		Logger:       o.config.Logger,
	})
	if err != nil {
		_ = res.Target.Close()
		return fmt.Errorf("%w - failed to create injector - %w", ErrProfileUnresolved, err)
	}

	o.target = res.Target
	o.profile = res.Profile
	o.code = NewCode(res.Profile)
	o.resolver = memory.NewResolver(res.Target)
	o.injector = injector

	if o.config.TrackPatches {
		o.tracker = hack.NewTracker(res.Target)
		o.tracker.Logger = o.config.Logger
	}

	o.logf("attached to %s running %s", res.Info, res.Profile)

	return nil
}

// AttachOrExit calls Attach. DefaultExitFn is invoked if an
// error occurs.
func (o *Session) AttachOrExit() {
	err := o.Attach()
	if err != nil {
		DefaultExitFn(err)
	}
}

func (o *Session) reportUnsupported(info process.Info) {
	if o.reportedUnsup && o.reportedUnsupID == info.PID {
		return
	}

	o.reportedUnsup = true
	o.reportedUnsupID = info.PID

	o.logf("unsupported build: %s", info)

	if o.config.OnUnsupported != nil {
		o.config.OnUnsupported(info)
	}
}

// Profile returns the profile of the attached target.
func (o *Session) Profile() (*profile.Profile, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.profile, o.profile != nil
}

// Target returns the attached target.
func (o *Session) Target() (process.Target, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.target, o.target != nil
}

// Close releases the attached target, if any.
func (o *Session) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.target == nil {
		return nil
	}

	return o.detach()
}

func (o *Session) detach() error {
	err := o.target.Close()

	o.target = nil
	o.profile = nil
	o.code = Code{}
	o.resolver = nil
	o.injector = nil
	o.tracker = nil

	return err
}

// ready attaches if needed and reports whether features may run.
func (o *Session) ready() bool {
	err := o.Attach()
	if err != nil {
		o.logf("target is not ready - %s", err)
		return false
	}

	return true
}

func (o *Session) logf(format string, v ...interface{}) {
	if o.config.Logger != nil {
		o.config.Logger.Printf(format, v...)
	}
}

func (o *Session) path(offsetNames ...string) memory.FieldPath {
	return o.profile.Path(offsetNames...)
}

func (o *Session) board(offsetNames ...string) memory.FieldPath {
	return o.profile.Path(append([]string{"main_object"}, offsetNames...)...)
}

func (o *Session) readInt32(path memory.FieldPath) (int32, error) {
	v, err := o.resolver.ReadInt32(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s - %w", path, err)
	}

	return v, nil
}

func (o *Session) readUint32(path memory.FieldPath) (uint32, error) {
	v, err := o.resolver.ReadUint32(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s - %w", path, err)
	}

	return v, nil
}

func (o *Session) writeInt32(path memory.FieldPath, v int32) error {
	err := o.resolver.WriteInt32(path, v)
	if err != nil {
		return fmt.Errorf("failed to write %d to %s - %w", v, path, err)
	}

	return nil
}

// GameUI values.
const (
	uiSeedChooser = 2
	uiPlaying     = 3
)

// GameMode values.
const (
	modeZenGarden = 50
)

func (o *Session) gameUI() (int32, error) {
	return o.readInt32(o.path("game_ui"))
}

func (o *Session) gameMode() (int32, error) {
	return o.readInt32(o.path("game_mode"))
}

// inLevel reports whether the seed chooser or a level is on screen.
func (o *Session) inLevel() (bool, error) {
	ui, err := o.gameUI()
	if err != nil {
		return false, err
	}

	return ui == uiSeedChooser || ui == uiPlaying, nil
}

func (o *Session) scene() (int32, error) {
	return o.readInt32(o.board("scene"))
}

func (o *Session) rowCount() (int, error) {
	scene, err := o.scene()
	if err != nil {
		return 0, err
	}

	if scene == 2 || scene == 3 {
		return 6, nil
	}

	return 5, nil
}

func isIZStyle(mode int32) bool {
	return mode >= 61 && mode <= 70
}

func (o *Session) setHack(name string, enable bool) error {
	p, ok := o.profile.Patch(name)
	if !ok {
		return fmt.Errorf("build %s has no %q patch", o.profile.ID(), name)
	}

	if o.tracker != nil {
		return o.tracker.Apply(name, p, enable)
	}

	err := hack.Apply(o.target, p, enable)
	if err != nil {
		return fmt.Errorf("failed to apply %q - %w", name, err)
	}

	return nil
}

func (o *Session) run(b *asmkit.Builder) error {
	err := o.injector.Run(b)
	if err != nil {
		return fmt.Errorf("failed to run injected code - %w", err)
	}

	return nil
}
