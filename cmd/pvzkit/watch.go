package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/pvzkit/process"
	"gitlab.com/stephen-fox/pvzkit/profile"
)

var WatchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Wait for the game to start, report its build and wait for it to exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		ctx, cancelFn := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancelFn()

		prober := process.NewSystemProber()
		prober.SetLogger(libLogger())

		for {
			glog.Infof("waiting for %s", catalog.ProductName)

			// The returned target is only used for liveness.
			target, res, err := catalog.WaitCtx(ctx, profile.WaitArgs{
				Prober:   prober,
				Interval: WatchInterval,
				Logger:   libLogger(),
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return err
			}

			if res.Target != nil {
				_ = res.Target.Close()
			}

			glog.Infof("%s: %s", target.Info(), res.Status)
			if res.Profile != nil {
				glog.Infof("build: %s", res.Profile.ID())
			}

			targetCtx, cancelTarget := process.WatchCtx(ctx, target, WatchInterval)
			<-targetCtx.Done()
			cancelTarget()

			_ = target.Close()

			if ctx.Err() != nil {
				return nil
			}

			glog.Infof("%s exited", target.Info())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&WatchInterval, "interval", time.Second,
		"How often to probe for the game")
}
