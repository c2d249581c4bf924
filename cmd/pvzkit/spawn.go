package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/pvzkit/trainer"
)

var SpawnOpts trainer.SpawnOptions

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Show or change the zombies of the current level",
}

var spawnShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the spawn list, one wave per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *trainer.Session) error {
			list, err := s.SpawnList()
			if err != nil {
				return err
			}

			for w, wave := range list {
				var sb strings.Builder
				for _, typ := range wave {
					if typ == trainer.NoZombie {
						break
					}

					fmt.Fprintf(&sb, " %d", typ)
				}

				fmt.Printf("%2d:%s\n", w+1, sb.String())
			}

			return nil
		})
	},
}

var spawnInternalCmd = &cobra.Command{
	Use:   "internal <type>...",
	Short: "Let the game generate the spawn list from the given zombie types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := parseSpawnTypes(args)
		if err != nil {
			return err
		}

		return withSession(func(s *trainer.Session) error {
			return s.InternalSpawn(types)
		})
	},
}

var spawnCustomCmd = &cobra.Command{
	Use:   "custom <type>...",
	Short: "Write a spawn list made of the given zombie types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := parseSpawnTypes(args)
		if err != nil {
			return err
		}

		return withSession(func(s *trainer.Session) error {
			return s.CustomizeSpawn(types, SpawnOpts)
		})
	},
}

func init() {
	rootCmd.AddCommand(spawnCmd)

	spawnCmd.AddCommand(spawnShowCmd, spawnInternalCmd, spawnCustomCmd)

	spawnCustomCmd.Flags().BoolVar(&SpawnOpts.Simulate, "simulate", false,
		"Pick zombies at random with the game's weights")
	spawnCustomCmd.Flags().BoolVar(&SpawnOpts.LimitGiga, "limit-giga", false,
		"Keep gigas out of waves 11 to 19")
	spawnCustomCmd.Flags().IntVar(&SpawnOpts.GigaWeight, "giga-weight", 0,
		"Weight of gigas in normal waves when simulating")
}

func parseSpawnTypes(args []string) (trainer.SpawnTypes, error) {
	var types trainer.SpawnTypes

	for _, arg := range args {
		typ, err := strconv.Atoi(arg)
		if err != nil || typ < 0 || typ >= trainer.ZombieTypes {
			return types, fmt.Errorf("invalid zombie type: %q", arg)
		}

		types[typ] = true
	}

	return types, nil
}
