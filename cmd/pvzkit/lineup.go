package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gitlab.com/stephen-fox/pvzkit/lineup"
	"gitlab.com/stephen-fox/pvzkit/trainer"
)

var lineupCmd = &cobra.Command{
	Use:   "lineup",
	Short: "Save and restore board layouts as lineup tokens",
}

var lineupGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the lineup token of the current board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *trainer.Session) error {
			token, err := s.Lineup()
			if err != nil {
				return err
			}

			fmt.Println(token)

			return nil
		})
	},
}

var lineupSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Replace the current board with a lineup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *trainer.Session) error {
			return s.SetLineup(args[0])
		})
	},
}

var lineupDecodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Print a lineup token as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := lineup.Decode(args[0])
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)

		err = enc.Encode(boardFromSnapshot(s))
		if err != nil {
			return fmt.Errorf("failed to encode board - %w", err)
		}

		return enc.Close()
	},
}

var lineupEncodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Convert a YAML board to a lineup token",
	Long: `Reads a board in the format printed by "lineup decode" from
file, or from stdin if no file is given, and prints its token.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin

		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			r = f
		}

		var b board
		err := yaml.NewDecoder(r).Decode(&b)
		if err != nil {
			return fmt.Errorf("failed to parse board - %w", err)
		}

		s, err := b.snapshot()
		if err != nil {
			return err
		}

		token, err := lineup.Encode(s)
		if err != nil {
			return err
		}

		fmt.Println(token)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(lineupCmd)

	lineupCmd.AddCommand(lineupGetCmd, lineupSetCmd, lineupDecodeCmd, lineupEncodeCmd)
}

// board is the YAML form of a lineup.Snapshot. Only occupied cells
// are listed.
type board struct {
	Scene   string      `yaml:"scene"`
	RakeRow uint8       `yaml:"rake_row,omitempty"`
	Cells   []boardCell `yaml:"cells,omitempty"`
}

type boardCell struct {
	Row             int    `yaml:"row"`
	Col             int    `yaml:"col"`
	Plant           *uint8 `yaml:"plant,omitempty"`
	Imitater        bool   `yaml:"imitater,omitempty"`
	Awake           bool   `yaml:"awake,omitempty"`
	Base            string `yaml:"base,omitempty"`
	BaseImitater    bool   `yaml:"base_imitater,omitempty"`
	Pumpkin         bool   `yaml:"pumpkin,omitempty"`
	PumpkinImitater bool   `yaml:"pumpkin_imitater,omitempty"`
	Coffee          bool   `yaml:"coffee,omitempty"`
	CoffeeImitater  bool   `yaml:"coffee_imitater,omitempty"`
	Ladder          bool   `yaml:"ladder,omitempty"`
}

func boardFromSnapshot(s lineup.Snapshot) board {
	b := board{
		Scene:   s.Scene.String(),
		RakeRow: s.RakeRow,
	}

	for r := 0; r < s.Rows(); r++ {
		for c := 0; c < lineup.Cols; c++ {
			cell := s.Cells[r][c]
			if cell == (lineup.Cell{}) {
				continue
			}

			bc := boardCell{
				Row:             r,
				Col:             c,
				Imitater:        cell.Plant.Imitater,
				Awake:           cell.Plant.Awake,
				BaseImitater:    cell.BaseImitater,
				Pumpkin:         cell.Pumpkin,
				PumpkinImitater: cell.PumpkinImitater,
				Coffee:          cell.Coffee,
				CoffeeImitater:  cell.CoffeeImitater,
				Ladder:          cell.Ladder,
			}

			if cell.Plant.Present {
				typ := cell.Plant.Type
				bc.Plant = &typ
			}

			if cell.Base != lineup.NoBase {
				bc.Base = cell.Base.String()
			}

			b.Cells = append(b.Cells, bc)
		}
	}

	return b
}

func (o board) snapshot() (lineup.Snapshot, error) {
	var s lineup.Snapshot

	scene, err := parseScene(o.Scene)
	if err != nil {
		return s, err
	}

	s.Scene = scene
	s.RakeRow = o.RakeRow

	for _, bc := range o.Cells {
		if bc.Row < 0 || bc.Row >= lineup.MaxRows || bc.Col < 0 || bc.Col >= lineup.Cols {
			return s, fmt.Errorf("cell %d,%d is outside of the board", bc.Row, bc.Col)
		}

		base, err := parseBase(bc.Base)
		if err != nil {
			return s, fmt.Errorf("cell %d,%d - %w", bc.Row, bc.Col, err)
		}

		cell := lineup.Cell{
			Base:            base,
			BaseImitater:    bc.BaseImitater,
			Pumpkin:         bc.Pumpkin,
			PumpkinImitater: bc.PumpkinImitater,
			Coffee:          bc.Coffee,
			CoffeeImitater:  bc.CoffeeImitater,
			Ladder:          bc.Ladder,
		}

		if bc.Plant != nil {
			cell.Plant = lineup.Plant{
				Present:  true,
				Type:     *bc.Plant,
				Imitater: bc.Imitater,
				Awake:    bc.Awake,
			}
		}

		s.Cells[bc.Row][bc.Col] = cell
	}

	return s, nil
}

func parseScene(name string) (lineup.Scene, error) {
	for scene := lineup.Day; scene <= lineup.Moon; scene++ {
		if scene.String() == name {
			return scene, nil
		}
	}

	return 0, fmt.Errorf("unknown scene: %q", name)
}

func parseBase(name string) (lineup.BaseType, error) {
	if name == "" {
		return lineup.NoBase, nil
	}

	for base := lineup.NoBase; base <= lineup.Grave; base++ {
		if base.String() == name {
			return base, nil
		}
	}

	return 0, fmt.Errorf("unknown base: %q", name)
}
