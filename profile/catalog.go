package profile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	"gitlab.com/stephen-fox/pvzkit/memory"
	"gitlab.com/stephen-fox/pvzkit/process"
)

var (
	// DefaultExitFn is invoked by the OrExit functions when
	// an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// Catalog is the set of supported builds and the identity of the
// target's window and executable.
type Catalog struct {
	WindowClass string
	ProductName string
	Executable  string

	titles   []string
	profiles []*Profile
	byID     map[string]*Profile
}

// Titles returns the window titles probed, in order.
func (o *Catalog) Titles() []string {
	return append([]string(nil), o.titles...)
}

// Profiles returns every Profile in matching order.
func (o *Catalog) Profiles() []*Profile {
	return append([]*Profile(nil), o.profiles...)
}

// Profile returns the Profile with the given id.
func (o *Catalog) Profile(id string) (*Profile, bool) {
	p, ok := o.byID[id]
	return p, ok
}

// Table returns an AddressTable with one context per build. Each
// context holds the base address, every offset as "offset.<name>",
// and every routine as "routine.<name>".
func (o *Catalog) Table() *memory.AddressTable {
	table := memory.NewAddressTable(o.profiles[0].id)

	for _, p := range o.profiles {
		table.AddSymbolInContext("base", p.baseAddress, p.id)

		for name, offset := range p.offsets {
			table.AddSymbolInContext("offset."+name, offset, p.id)
		}

		for name, addr := range p.routines {
			table.AddSymbolInContext("routine."+name, addr, p.id)
		}
	}

	return table
}

// Status is the outcome of Catalog.Resolve.
type Status int

const (
	// Unresolved means no window of the target was found.
	Unresolved Status = iota

	// Resolved means the target was found and its build is known.
	Resolved

	// Unsupported means the target was found but no build
	// signature matched.
	Unsupported

	// OpenFailed means a window was found but its process could
	// not be opened.
	OpenFailed
)

func (o Status) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Unsupported:
		return "unsupported"
	case OpenFailed:
		return "open failed"
	default:
		return fmt.Sprintf("unknown status: %d", int(o))
	}
}

// Resolution is the outcome of Catalog.Resolve.
//
// Target is only set when Status is Resolved. The caller owns
// it and must Close it.
type Resolution struct {
	Status  Status
	Profile *Profile
	Target  process.Target
	Info    process.Info

	// Err is the open failure when Status is OpenFailed.
	Err error
}

// Resolve finds the target using prober. Every title is probed in
// order, then any window of the class. A window whose executable is
// not the target is skipped. The first window that is the target
// decides the result: its build is matched against each Profile's
// signature in catalogue order.
//
// The returned error is only non-nil when probing itself failed.
func (o *Catalog) Resolve(prober process.Prober) (Resolution, error) {
	titles := append(o.Titles(), "")

	for _, title := range titles {
		target, found, err := prober.Probe(o.WindowClass, title)
		if !found {
			if err != nil {
				return Resolution{}, fmt.Errorf("failed to probe for window %q - %w", title, err)
			}

			continue
		}

		if err != nil {
			return Resolution{
				Status: OpenFailed,
				Err:    err,
			}, nil
		}

		info := target.Info()

		if info.ProductName != o.ProductName || info.OriginalFilename != o.Executable {
			_ = target.Close()
			continue
		}

		p, err := o.match(target, info)
		if err != nil {
			_ = target.Close()
			return Resolution{}, err
		}

		if p == nil {
			_ = target.Close()

			return Resolution{
				Status: Unsupported,
				Info:   info,
			}, nil
		}

		return Resolution{
			Status:  Resolved,
			Profile: p,
			Target:  target,
			Info:    info,
		}, nil
	}

	return Resolution{Status: Unresolved}, nil
}

// WaitArgs configures Catalog.WaitCtx.
type WaitArgs struct {
	Prober process.Prober

	// Interval is the delay between probes. It defaults
	// to one second.
	Interval time.Duration

	Logger *log.Logger
}

// WaitCtx waits until a window of the class is found and Resolve
// reports anything other than Unresolved, or until ctx is done.
// A window of the class owned by another application is closed
// and polling continues.
//
// The returned Target is the process that owns the found window.
// It is separate from the Resolution's Target and the caller
// must Close both.
func (o *Catalog) WaitCtx(ctx context.Context, args WaitArgs) (process.Target, Resolution, error) {
	interval := args.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		target, err := process.WaitCtx(ctx, process.WaitArgs{
			Prober:   args.Prober,
			Class:    o.WindowClass,
			Titles:   o.Titles(),
			Interval: interval,
			Logger:   args.Logger,
		})
		if err != nil {
			return nil, Resolution{}, err
		}

		res, err := o.Resolve(args.Prober)
		if err != nil {
			_ = target.Close()
			return nil, Resolution{}, err
		}

		if res.Status != Unresolved {
			return target, res, nil
		}

		_ = target.Close()

		if args.Logger != nil {
			args.Logger.Printf("%s is not %s - still waiting", target.Info(), o.ProductName)
		}

		select {
		case <-ctx.Done():
			return nil, Resolution{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (o *Catalog) match(target process.Target, info process.Info) (*Profile, error) {
	for _, p := range o.profiles {
		if !p.signature.Matches(info.FileVersion) {
			continue
		}

		raw, err := target.ReadMemory(p.signature.Address, 4)
		if err != nil {
			if errors.Is(err, process.ErrExited) {
				return nil, fmt.Errorf("failed to read signature of %s - %w", p.id, err)
			}

			continue
		}

		if binary.LittleEndian.Uint32(raw) == p.signature.Value {
			return p, nil
		}
	}

	return nil, nil
}
