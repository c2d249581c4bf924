package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gitlab.com/stephen-fox/pvzkit/conv"
	"gitlab.com/stephen-fox/pvzkit/memory"
	"gitlab.com/stephen-fox/pvzkit/profile"
)

var ProfileSymbol string

var profilesCmd = &cobra.Command{
	Use:   "profiles [build-id]",
	Short: "List the supported builds or show the addresses of one build",
	Long: `Without arguments, lists the supported builds. With a build id,
prints its offsets, routines and patches.

--symbol looks up a single symbol of the build. Symbols are "base",
"offset.<name>" and "routine.<name>".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return listProfiles(catalog)
		}

		p, ok := catalog.Profile(args[0])
		if !ok {
			return fmt.Errorf("unknown build: %q", args[0])
		}

		if ProfileSymbol != "" {
			addr, err := catalog.Table().SetContext(p.ID()).Address(ProfileSymbol)
			if err != nil {
				return err
			}

			fmt.Println(memory.PointerMakerForX86_32().FromUint(addr).HexString())

			return nil
		}

		return showProfile(p)
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.Flags().StringVarP(&ProfileSymbol, "symbol", "s", "",
		"Print the address of this symbol only")
}

func listProfiles(catalog *profile.Catalog) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tGOTY\tVERSIONS")

	for _, p := range catalog.Profiles() {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n",
			p.ID(), p.Name(), p.GOTY(), strings.Join(p.Signature().Versions, ", "))
	}

	return w.Flush()
}

func showProfile(p *profile.Profile) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	pm := memory.PointerMakerForX86_32()
	sig := p.Signature()

	fmt.Fprintf(w, "build\t%s (%s)\n", p.ID(), p.Name())
	fmt.Fprintf(w, "signature\t%s = 0x%08x\n", pm.FromUint(sig.Address).HexString(), sig.Value)
	fmt.Fprintf(w, "base\t%s\n", pm.FromUint(p.BaseAddress()).HexString())

	fmt.Fprintln(w, "\nOFFSET\tVALUE")
	for _, name := range p.OffsetNames() {
		fmt.Fprintf(w, "%s\t0x%x\n", name, p.Offset(name))
	}

	fmt.Fprintln(w, "\nROUTINE\tADDRESS")
	for _, name := range p.RoutineNames() {
		fmt.Fprintf(w, "%s\t%s\n", name, pm.FromUint(p.Routine(name)).HexString())
	}

	fmt.Fprintln(w, "\nPATCH\tADDRESS\tREPLACEMENT\tORIGINAL")
	for _, name := range p.PatchNames() {
		patch, _ := p.Patch(name)
		for _, record := range patch {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, pm.FromUint(record.Address).HexString(),
				conv.BytesToHexArray(record.Replacement), conv.BytesToHexArray(record.Original))
		}
	}

	return w.Flush()
}
