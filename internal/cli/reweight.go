package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/raphaelgruber/rdxrw/internal/hammer"
	"github.com/raphaelgruber/rdxrw/internal/metrics"
	"github.com/raphaelgruber/rdxrw/internal/ntuple"
	"github.com/raphaelgruber/rdxrw/internal/reweight"
	"github.com/raphaelgruber/rdxrw/internal/service"
)

var (
	reweightTrees      []string
	reweightRun        string
	reweightSchemes    string
	reweightParallel   int
	reweightNoProgress bool
)

var reweightCmd = &cobra.Command{
	Use:   "reweight <input.root> <output.root>",
	Short: "Reweight truth candidates to the target form factors",
	Long: `Read the truth candidates of each tree in the input file, weigh them with
the engine and write one output row per candidate.

Each tree is given as path:prefix, where prefix is the B-meson branch prefix.
Without --tree the B- and B0 trees of the standard tuples are used.

Examples:
  rdxrw reweight mc.root weights.root
  rdxrw reweight mc.root weights.root --tree TupleB0/DecayTree:b0
  rdxrw reweight mc.root weights.root --run run1 --schemes variations.yaml
  rdxrw reweight mc.root weights.root --parallel 2 --no-progress`,
	Args: cobra.ExactArgs(2),
	RunE: runReweight,
}

func init() {
	reweightCmd.Flags().StringSliceVarP(&reweightTrees, "tree", "t", nil, "input tree as path:prefix (repeatable)")
	reweightCmd.Flags().StringVar(&reweightRun, "run", "", "simulation campaign, run1 or run2 (default from RDXRW_RUN)")
	reweightCmd.Flags().StringVar(&reweightSchemes, "schemes", "", "YAML file overriding the variation tables")
	reweightCmd.Flags().IntVarP(&reweightParallel, "parallel", "p", 1, "trees processed concurrently")
	reweightCmd.Flags().BoolVar(&reweightNoProgress, "no-progress", false, "disable the progress display")
}

func runReweight(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	trees, err := parseTrees(reweightTrees)
	if err != nil {
		return err
	}
	setup, err := loadSetup(reweightRun, cfg.Units, reweightSchemes)
	if err != nil {
		return fmt.Errorf("run setup: %w", err)
	}

	sink, err := ntuple.Create(output)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	job := &reweightJob{
		input:   input,
		output:  output,
		setup:   setup,
		sink:    sink,
		manager: service.NewRunManager(runLedger()),
	}
	results := make([]treeResult, len(trees))

	work := func(report progressFunc) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, reweightParallel))
		for i, t := range trees {
			g.Go(func() error {
				var err error
				results[i], err = job.run(gctx, t, func(done, total int64) {
					if report != nil {
						report(i, done, total)
					}
				})
				return err
			})
		}
		return g.Wait()
	}

	if !reweightNoProgress && term.IsTerminal(int(os.Stdout.Fd())) {
		names := make([]string, len(trees))
		for i, t := range trees {
			names[i] = t.Path
		}
		err = runWithProgress(names, cancel, work)
	} else {
		err = work(nil)
	}

	if cerr := sink.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close %s: %w", output, cerr))
	}

	printResults(cmd.OutOrStdout(), results)
	return err
}

func parseTrees(specs []string) ([]ntuple.Tree, error) {
	if len(specs) == 0 {
		return ntuple.DefaultTrees, nil
	}
	trees := make([]ntuple.Tree, 0, len(specs))
	for _, s := range specs {
		t, err := ntuple.ParseTree(s)
		if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	return trees, nil
}

// treeResult is what one tree run leaves behind for the summary.
type treeResult struct {
	Tree    ntuple.Tree
	Run     *service.Run
	Summary reweight.Summary
	Metrics metrics.Snapshot
}

// reweightJob holds what the tree runs of one invocation share.
type reweightJob struct {
	input   string
	output  string
	setup   hammer.RunSetup
	sink    *ntuple.Sink
	manager *service.RunManager
}

// run reweights one tree on its own engine session.
func (j *reweightJob) run(ctx context.Context, t ntuple.Tree, report func(done, total int64)) (treeResult, error) {
	res := treeResult{Tree: t}

	src, err := ntuple.Open(j.input, t)
	if err != nil {
		return res, err
	}
	defer src.Close()

	out, err := j.sink.NewTree(t.Path, len(j.setup.Variations()))
	if err != nil {
		return res, err
	}

	run, err := j.manager.Create(ctx, j.input, t.String(), j.output, src.Entries())
	if err != nil {
		return res, fmt.Errorf("register run for %s: %w", t, err)
	}
	res.Run = run
	logger := slog.Default().With("run_id", run.ID, "tree", t.Path)

	engine, err := openEngine(ctx, j.setup, logger)
	if err != nil {
		j.manager.Fail(ctx, run, err)
		return res, fmt.Errorf("tree %s: %w", t, err)
	}
	defer engine.Close()

	collector := metrics.NewCollector()
	pipeline := reweight.NewPipeline(hammer.NewWeigher(engine, j.setup, collector), reweight.Options{
		SoftThreshold: cfg.SoftPhotonThreshold,
		Logger:        logger,
	})

	j.manager.Start(ctx, run)
	r := reweight.Run{
		Pipeline: pipeline,
		Source:   src,
		Sink:     out,
		Logger:   logger,
		OnProgress: func(done, total int64) {
			j.manager.UpdateProgress(ctx, run, done, total)
			report(done, total)
		},
	}
	res.Summary, err = r.Execute(ctx)
	res.Metrics = collector.Snapshot()
	if err != nil {
		j.manager.Fail(ctx, run, err)
		return res, fmt.Errorf("tree %s: %w", t, err)
	}

	j.manager.Complete(ctx, run, res.Summary.Counters)
	return res, nil
}

func printResults(w io.Writer, results []treeResult) {
	for _, r := range results {
		if r.Run == nil {
			continue
		}
		run := r.Run.Snapshot()
		fmt.Fprintf(w, "Tree %s (run %s, %s)\n", r.Tree, run.ID, run.Status)
		printSummary(w, r.Summary)
		if verbose {
			printMetrics(w, r.Metrics)
		}
		fmt.Fprintln(w)
	}
}

func printSummary(w io.Writer, s reweight.Summary) {
	fmt.Fprintf(w, "  Candidates:  %d\n", s.Seen)
	fmt.Fprintf(w, "  Weighted:    %d (%.2f%%)\n", s.Weighted, 100*s.Fraction())
	fmt.Fprintf(w, "  Duration:    %s\n", s.Duration.Round(time.Millisecond))
	printNominal(w, s.Nominal)
}

func printNominal(w io.Writer, h *hbook.H1D) {
	if h == nil || h.Entries() == 0 {
		return
	}
	fmt.Fprintf(w, "  Nominal:     mean %.4f, std dev %.4f\n", h.XMean(), h.XStdDev())
}

func printMetrics(w io.Writer, snap metrics.Snapshot) {
	if len(snap.Ops) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-18s %8s %8s %10s %8s\n", "OPERATION", "CALLS", "FAILED", "AVG (ms)", "MAX (ms)")
	for _, op := range snap.Ops {
		fmt.Fprintf(w, "  %-18s %8d %8d %10.2f %8d\n", op.Op, op.Count, op.Failures, op.AvgTimeMs, op.MaxTimeMs)
	}
}
