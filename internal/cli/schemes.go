package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/rdxrw/internal/hammer"
)

var (
	schemesRun    string
	schemesTables string
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "Show the engine run setup",
	Long: `Print the decays, input form factors, weighting schemes and option strings
the engine is configured with before the first candidate.

Examples:
  rdxrw schemes
  rdxrw schemes --run run1
  rdxrw schemes --schemes variations.yaml`,
	Args: cobra.NoArgs,
	RunE: runSchemes,
}

func init() {
	schemesCmd.Flags().StringVar(&schemesRun, "run", "", "simulation campaign, run1 or run2 (default from RDXRW_RUN)")
	schemesCmd.Flags().StringVar(&schemesTables, "schemes", "", "YAML file overriding the variation tables")
}

func runSchemes(cmd *cobra.Command, args []string) error {
	setup, err := loadSetup(schemesRun, cfg.Units, schemesTables)
	if err != nil {
		return err
	}
	printSetup(cmd.OutOrStdout(), setup)
	return nil
}

func printSetup(w io.Writer, s hammer.RunSetup) {
	fmt.Fprintf(w, "Units: %s\n\n", s.Units)

	fmt.Fprintln(w, "Decays:")
	for _, d := range s.Decays {
		fmt.Fprintf(w, "  %s\n", d)
	}

	fmt.Fprintln(w, "\nInput form factors:")
	for _, d := range slices.Sorted(maps.Keys(s.InputFF)) {
		fmt.Fprintf(w, "  %-8s %s\n", d, s.InputFF[d])
	}

	fmt.Fprintf(w, "\nSchemes (%d variations):\n", len(s.Variations()))
	for _, sc := range s.Schemes {
		fmt.Fprintf(w, "  %s\n", sc.Name)
		for _, d := range slices.Sorted(maps.Keys(sc.FF)) {
			fmt.Fprintf(w, "    %-8s %s\n", d, sc.FF[d])
		}
	}

	fmt.Fprintln(w, "\nOptions:")
	for _, o := range s.Options {
		fmt.Fprintf(w, "  %s\n", o)
	}

	if len(s.SpecializedWC) > 0 {
		fmt.Fprintln(w, "\nSpecialized Wilson coefficients:")
		for _, wc := range s.SpecializedWC {
			fmt.Fprintf(w, "  %s:", wc.Process)
			for _, k := range slices.Sorted(maps.Keys(wc.Coefficients)) {
				fmt.Fprintf(w, " %s=%g", k, wc.Coefficients[k])
			}
			fmt.Fprintln(w)
		}
	}
}
