package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/rdxrw/internal/hammer"
	"github.com/raphaelgruber/rdxrw/internal/metrics"
	"github.com/raphaelgruber/rdxrw/internal/reweight"
	"github.com/raphaelgruber/rdxrw/internal/toy"
)

// toyUnits are the units of the generated four-momenta.
const toyUnits = "GeV"

var (
	toyKinds   []string
	toyRun     string
	toySchemes string
	toySeed    uint64
	toyStep    float64
	toyLimit   int
)

var toyCmd = &cobra.Command{
	Use:   "toy",
	Short: "Weigh generated B -> D(*) tau nu decays",
	Long: `Generate B -> D tau nu and B -> D* tau nu decays in the B rest frame on a
uniform q2 grid, weigh them with the engine and summarise the nominal weights.

The generated candidates bypass the truth-topology filter, so every failure
to weigh one points at the engine setup.

Examples:
  rdxrw toy
  rdxrw toy --kind BD --step 0.05
  rdxrw toy --kind BD* --limit 100 --seed 7`,
	Args: cobra.NoArgs,
	RunE: runToy,
}

func init() {
	toyCmd.Flags().StringSliceVarP(&toyKinds, "kind", "k", []string{toy.KindBD.String(), toy.KindBDst.String()}, "decays to generate (BD, BD*)")
	toyCmd.Flags().StringVar(&toyRun, "run", string(hammer.Run1), "simulation campaign, run1 or run2")
	toyCmd.Flags().StringVar(&toySchemes, "schemes", "", "YAML file overriding the variation tables")
	toyCmd.Flags().Uint64Var(&toySeed, "seed", 1, "random seed for the decay angles")
	toyCmd.Flags().Float64Var(&toyStep, "step", toy.DefaultStep, "q2 grid step in GeV^2")
	toyCmd.Flags().IntVarP(&toyLimit, "limit", "n", 0, "max candidates per decay (0 = whole grid)")
}

func runToy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	kinds := make([]toy.Kind, 0, len(toyKinds))
	for _, s := range toyKinds {
		k, err := toy.ParseKind(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	if toyStep <= 0 {
		return fmt.Errorf("q2 step must be positive, got %g", toyStep)
	}

	setup, err := loadSetup(toyRun, toyUnits, toySchemes)
	if err != nil {
		return fmt.Errorf("run setup: %w", err)
	}

	engine, err := openEngine(ctx, setup, slog.Default())
	if err != nil {
		return err
	}
	defer engine.Close()

	collector := metrics.NewCollector()
	pipeline := reweight.NewPipeline(hammer.NewWeigher(engine, setup, collector), reweight.Options{
		SoftThreshold: cfg.SoftPhotonThreshold,
	})

	for _, k := range kinds {
		g := toy.NewGenerator(k, toySeed)
		g.SetStep(toyStep)
		points := g.Len()

		sum, err := toy.Validate(ctx, pipeline, g, toyLimit)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		slog.Info("toy validation finished", "kind", k.String(), "candidates", sum.Seen, "weighted", sum.Weighted)

		fmt.Fprintf(w, "%s (%d grid points)\n", k, points)
		printSummary(w, sum)
		fmt.Fprintln(w)
	}

	if verbose {
		printMetrics(w, collector.Snapshot())
	}
	return nil
}
