package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/trainer"
)

var (
	AsmBuild    string
	AsmOrigin   uint32
	AsmSyntax   string
	AsmImitater bool
	AsmIZStyle  bool
)

// asmOp emits the code of one trainer operation. args are the
// operation's integer arguments.
type asmOp struct {
	args []string
	emit func(code trainer.Code, b *asmkit.Builder, args []int)
}

var asmOps = map[string]asmOp{
	"put-plant": {
		args: []string{"row", "col", "type"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.PutPlant(b, a[0], a[1], a[2], AsmImitater, AsmIZStyle)
		},
	},
	"put-zombie": {
		args: []string{"row", "col", "type"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.PutZombie(b, a[0], a[1], a[2])
		},
	},
	"put-zomboss": {
		emit: func(code trainer.Code, b *asmkit.Builder, _ []int) {
			code.PutZomboss(b)
		},
	},
	"put-grave": {
		args: []string{"row", "col"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.PutGrave(b, a[0], a[1])
		},
	},
	"put-ladder": {
		args: []string{"row", "col"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.PutLadder(b, a[0], a[1])
		},
	},
	"wake-plant": {
		args: []string{"address"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.WakePlant(b, uint32(a[0]))
		},
	},
	"delete-plant": {
		args: []string{"address"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.DeletePlant(b, uint32(a[0]))
		},
	},
	"level-complete": {
		emit: func(code trainer.Code, b *asmkit.Builder, _ []int) {
			code.LevelComplete(b)
		},
	},
	"wisdom-tree": {
		emit: func(code trainer.Code, b *asmkit.Builder, _ []int) {
			code.WisdomTree(b)
		},
	},
	"music": {
		args: []string{"id"},
		emit: func(code trainer.Code, b *asmkit.Builder, a []int) {
			code.SetMusic(b, a[0])
		},
	},
	"spawn-list": {
		emit: func(code trainer.Code, b *asmkit.Builder, _ []int) {
			code.GenerateSpawnList(b)
		},
	},
	"spawn-preview": {
		emit: func(code trainer.Code, b *asmkit.Builder, _ []int) {
			code.UpdateSpawnPreview(b)
		},
	},
}

func asmOpNames() []string {
	var names []string
	for name, op := range asmOps {
		usage := name
		for _, arg := range op.args {
			usage += " <" + arg + ">"
		}

		names = append(names, usage)
	}

	sort.Strings(names)

	return names
}

var asmCmd = &cobra.Command{
	Use:   "asm <operation> [args...]",
	Short: "List the code an operation injects into a build",
	Long: `Prints the disassembly of the code an operation injects, as
finalized for --origin. No game needs to be running.

Operations:
  ` + strings.Join(asmOpNames(), "\n  "),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, ok := asmOps[args[0]]
		if !ok {
			return fmt.Errorf("unknown operation: %q", args[0])
		}

		if len(args)-1 != len(op.args) {
			return fmt.Errorf("%s expects %d arguments - got %d", args[0], len(op.args), len(args)-1)
		}

		values := make([]int, len(op.args))
		for i, arg := range args[1:] {
			v, err := strconv.ParseInt(arg, 0, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %q", op.args[i], arg)
			}

			values[i] = int(v)
		}

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		p, ok := catalog.Profile(AsmBuild)
		if !ok {
			return fmt.Errorf("unknown build: %q", AsmBuild)
		}

		b := asmkit.NewBuilder()
		op.emit(trainer.NewCode(p), b, values)

		code, err := b.Ret().Finalize(AsmOrigin)
		if err != nil {
			return err
		}

		disass, err := asmkit.NewDisassembler(asmkit.DisassemblerConfig{
			Syntax: asmkit.DisassemblySyntax(AsmSyntax),
			Origin: AsmOrigin,
		})
		if err != nil {
			return err
		}

		listing, err := disass.Listing(code)
		if err != nil {
			return fmt.Errorf("failed to disassemble %s - %w", args[0], err)
		}

		fmt.Print(listing)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(asmCmd)

	asmCmd.Flags().StringVarP(&AsmBuild, "build", "b", "1.0.0.1051_en", "The build to generate code for")
	asmCmd.Flags().Uint32VarP(&AsmOrigin, "origin", "o", 0x10000000, "The address the code is loaded at")
	asmCmd.Flags().StringVarP(&AsmSyntax, "syntax", "s", string(asmkit.IntelSyntax), "intel, att or go")
	asmCmd.Flags().BoolVar(&AsmImitater, "imitater", false, "put-plant: plant an imitater")
	asmCmd.Flags().BoolVar(&AsmIZStyle, "iz", false, "put-plant: plant in I, Zombie style")
}
