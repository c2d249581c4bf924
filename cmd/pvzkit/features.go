package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/pvzkit/trainer"
)

// valueCmd returns a command that passes one integer argument
// to fn.
func valueCmd(use string, short string, fn func(*trainer.Session, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <value>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid value: %q", args[0])
			}

			return withSession(func(s *trainer.Session) error {
				return fn(s, v)
			})
		},
	}
}

// rangeCmd returns a command that passes 1-based from and to
// columns to fn.
func rangeCmd(use string, short string, fn func(*trainer.Session, int, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [from-col] [to-col]",
		Short: short + " (columns are 1-based and default to 1 and 9)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bounds := []int{1, 9}
			for i, arg := range args {
				v, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid column: %q", arg)
				}

				bounds[i] = v
			}

			return withSession(func(s *trainer.Session) error {
				return fn(s, bounds[0], bounds[1])
			})
		},
	}
}

var (
	SlotImitater        bool
	ImitaterPumpkinOnly bool
	PutImitater         bool
)

var mixModeCmd = &cobra.Command{
	Use:   "mode <mode> [adventure-level]",
	Short: "Switch the current level to another game mode",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid mode: %q", args[0])
		}

		level := 1
		if len(args) == 2 {
			level, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid level: %q", args[1])
			}
		}

		return withSession(func(s *trainer.Session) error {
			return s.MixMode(mode, level)
		})
	},
}

var freePlantingCmd = &cobra.Command{
	Use:   "free-planting on|off",
	Short: "Plant without sun cost or cool down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}

		return withSession(func(s *trainer.Session) error {
			return s.FreePlanting(on)
		})
	},
}

var slotCmd = &cobra.Command{
	Use:   "slot <index> [seed]",
	Short: "Show or replace the seed of a slot",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot index: %q", args[0])
		}

		return withSession(func(s *trainer.Session) error {
			if len(args) == 1 {
				seed, err := s.SlotSeed(index)
				if err != nil {
					return err
				}

				fmt.Println(seed)

				return nil
			}

			seed, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid seed: %q", args[1])
			}

			return s.SetSlotSeed(index, seed, SlotImitater)
		})
	},
}

var hackCmd = &cobra.Command{
	Use:   "hack <feature> on|off",
	Short: "Turn a feature on or off",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feature, err := trainer.ParseFeature(args[0])
		if err != nil {
			return err
		}

		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}

		return withSession(func(s *trainer.Session) error {
			return s.SetHack(feature, on)
		})
	},
}

var hackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the features and their patches",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range trainer.Features() {
			fmt.Printf("%s %v\n", f, f.Patches())
		}
	},
}

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Place plants, zombies, graves or ladders",
}

// putCellCmd returns a put subcommand taking a row, a column and,
// if withType is set, a type.
func putCellCmd(use string, withType bool, fn func(s *trainer.Session, row int, col int, typ int) error) *cobra.Command {
	n := 2
	usage := use + " <row> <col>"
	if withType {
		n = 3
		usage += " <type>"
	}

	return &cobra.Command{
		Use:   usage,
		Short: "Place " + use + "s",
		Args:  cobra.ExactArgs(n),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			col, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			var typ int
			if withType {
				typ, err = strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid type: %q", args[2])
				}
			}

			return withSession(func(s *trainer.Session) error {
				return fn(s, row, col, typ)
			})
		},
	}
}

var autoLadderCmd = &cobra.Command{
	Use:   "auto-ladder",
	Short: "Replace every ladder with one on each pumpkin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *trainer.Session) error {
			return s.AutoLadder(ImitaterPumpkinOnly)
		})
	},
}

// clearTargets maps the arguments of the clear command to operations.
var clearTargets = map[string]func(*trainer.Session) error{
	"plants":  (*trainer.Session).ClearAllPlants,
	"zombies": (*trainer.Session).KillAllZombies,
	"mowers":  (*trainer.Session).ClearAllLawnMowers,
	"graves":  clearGridItems(trainer.GridItemGrave),
	"craters": clearGridItems(trainer.GridItemCrater),
	"ladders": clearGridItems(trainer.GridItemLadder),
	"vases":   clearGridItems(trainer.GridItemVase),
	"rakes":   clearGridItems(trainer.GridItemRake),
}

func clearGridItems(typ int) func(*trainer.Session) error {
	return func(s *trainer.Session) error {
		return s.ClearGridItems(typ)
	}
}

var clearCmd = &cobra.Command{
	Use:       "clear plants|zombies|mowers|graves|craters|ladders|vases|rakes",
	Short:     "Remove objects from the board",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"plants", "zombies", "mowers", "graves", "craters", "ladders", "vases", "rakes"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fn, ok := clearTargets[args[0]]
		if !ok {
			return fmt.Errorf("unknown object kind: %q", args[0])
		}

		return withSession(fn)
	},
}

var winCmd = &cobra.Command{
	Use:   "win",
	Short: "Complete the current level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession((*trainer.Session).DirectWin)
	},
}

func init() {
	rootCmd.AddCommand(
		valueCmd("sun", "Set the sun of the current level", (*trainer.Session).SetSun),
		valueCmd("money", "Set the money (the game shows ten times the value)", (*trainer.Session).SetMoney),
		valueCmd("tree-height", "Set the height of the tree of wisdom", (*trainer.Session).SetTreeHeight),
		valueCmd("music", "Switch the background music", (*trainer.Session).SetMusic),
		valueCmd("jump", "Set the round of an endless mode", (*trainer.Session).JumpLevel),
		valueCmd("debug", "Set the debug display mode", (*trainer.Session).DebugMode),
		rangeCmd("lily-pads", "Plant lily pads on empty water", (*trainer.Session).LilyPadOnPool),
		rangeCmd("flower-pots", "Plant flower pots on the empty roof", (*trainer.Session).FlowerPotOnRoof),
		mixModeCmd,
		freePlantingCmd,
		slotCmd,
		hackCmd,
		putCmd,
		autoLadderCmd,
		clearCmd,
		winCmd,
	)

	slotCmd.Flags().BoolVar(&SlotImitater, "imitater", false, "Make the seed an imitater seed")

	hackCmd.AddCommand(hackListCmd)

	putPlantCmd := putCellCmd("plant", true, func(s *trainer.Session, row int, col int, typ int) error {
		return s.PutPlant(row, col, typ, PutImitater)
	})
	putPlantCmd.Flags().BoolVar(&PutImitater, "imitater", false, "Plant imitaters")

	putCmd.AddCommand(
		putPlantCmd,
		putCellCmd("zombie", true, func(s *trainer.Session, row int, col int, typ int) error {
			return s.PutZombie(row, col, typ)
		}),
		putCellCmd("grave", false, func(s *trainer.Session, row int, col int, _ int) error {
			return s.PutGrave(row, col)
		}),
		putCellCmd("ladder", false, func(s *trainer.Session, row int, col int, _ int) error {
			return s.PutLadder(row, col)
		}),
	)

	autoLadderCmd.Flags().BoolVar(&ImitaterPumpkinOnly, "imitater-only", false,
		"Only put ladders on imitater pumpkins")
}
