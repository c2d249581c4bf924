package process

import (
	"context"
	"fmt"
	"log"
	"time"
)

// WaitArgs configures WaitCtx.
type WaitArgs struct {
	Prober Prober
	Class  string
	Titles []string

	// Interval is the delay between probes. It defaults
	// to one second.
	Interval time.Duration

	Logger *log.Logger
}

// WaitCtx probes for a window until one of the titles (or, after every
// title, any window of the class) is found, or until ctx is done.
func WaitCtx(ctx context.Context, args WaitArgs) (Target, error) {
	interval := args.Interval
	if interval <= 0 {
		interval = time.Second
	}

	titles := append(append([]string(nil), args.Titles...), "")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, title := range titles {
			target, found, err := args.Prober.Probe(args.Class, title)
			if err != nil {
				return nil, fmt.Errorf("failed to probe for %q - %w", title, err)
			}

			if found {
				if args.Logger != nil {
					args.Logger.Printf("found target: %s", target.Info())
				}

				return target, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WatchCtx returns a context that is cancelled once target exits,
// or when the returned cancel function is called.
func WatchCtx(ctx context.Context, target Target, interval time.Duration) (context.Context, func()) {
	if interval <= 0 {
		interval = time.Second
	}

	newCtx, cancelFn := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-newCtx.Done():
				return
			case <-ticker.C:
				if !target.IsAlive() {
					cancelFn()
					return
				}
			}
		}
	}()

	return newCtx, cancelFn
}
