// pvzkit is a trainer for Plants vs. Zombies.
//
// Most commands attach to a running game. The profiles, lineup
// encode/decode and asm commands work offline.
package main

import (
	goflag "flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/process"
	"gitlab.com/stephen-fox/pvzkit/profile"
	"gitlab.com/stephen-fox/pvzkit/trainer"
)

const (
	appName = "pvzkit"

	allArg = "all"
)

var (
	ProfilesDir string
	SettleDelay time.Duration
	ListCode    bool
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Plants vs. Zombies trainer",
	Long: appName + ` modifies a running Plants vs. Zombies process.

Rows and columns are 0-based. Where a command accepts a row or
a column, "` + allArg + `" selects every row or column of the board.

Logging is configured with the glog flags, for example:
  ` + appName + ` --logtostderr -v 1 sun 9990`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ProfilesDir, "profiles", "",
		"Load build profiles from this directory instead of the built-in ones")
	rootCmd.PersistentFlags().DurationVar(&SettleDelay, "settle", 0,
		"Delay between pausing the game and running injected code (0 means the default)")
	rootCmd.PersistentFlags().BoolVar(&ListCode, "list-code", false,
		"Log a listing of injected code (requires -v 1)")
}

func main() {
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	err := rootCmd.Execute()
	if err != nil {
		glog.Flush()
		os.Exit(1)
	}
}

// libLogger returns the logger handed to library packages. The
// standard logger is copied to glog by main.
func libLogger() *log.Logger {
	if glog.V(1) {
		return log.Default()
	}

	return nil
}

func loadCatalog() (*profile.Catalog, error) {
	if ProfilesDir == "" {
		return profile.Default()
	}

	catalog, err := profile.Load(os.DirFS(ProfilesDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles from %q - %w", ProfilesDir, err)
	}

	glog.V(1).Infof("loaded %d profiles from %s", len(catalog.Profiles()), ProfilesDir)

	return catalog, nil
}

// attach returns a Session attached to the running game.
func attach() (*trainer.Session, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	prober := process.NewSystemProber()
	prober.SetLogger(libLogger())

	config := trainer.Config{
		Catalog:     catalog,
		Prober:      prober,
		SettleDelay: SettleDelay,
		Logger:      libLogger(),
		OnUnsupported: func(info process.Info) {
			glog.Warningf("unsupported game build: %s", info)
		},
	}

	if ListCode {
		config.Disassembler, err = asmkit.NewDisassembler(asmkit.DisassemblerConfig{
			Syntax: asmkit.IntelSyntax,
		})
		if err != nil {
			return nil, err
		}
	}

	session, err := trainer.New(config)
	if err != nil {
		return nil, err
	}

	err = session.Attach()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to the game - %w", err)
	}

	p, _ := session.Profile()
	glog.Infof("attached to build %s", p)

	return session, nil
}

// withSession runs fn with an attached Session and releases
// the target afterwards.
func withSession(fn func(*trainer.Session) error) error {
	session, err := attach()
	if err != nil {
		return err
	}
	defer session.Close()

	return fn(session)
}

// parseIndex parses a row or column argument.
func parseIndex(arg string) (int, error) {
	if arg == allArg {
		return trainer.All, nil
	}

	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid row or column: %q", arg)
	}

	return i, nil
}

func parseOnOff(arg string) (bool, error) {
	switch arg {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected 'on' or 'off' - got %q", arg)
	}
}
