package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/rdxrw/internal/db"
	"github.com/raphaelgruber/rdxrw/internal/ntuple"
	"github.com/raphaelgruber/rdxrw/internal/truth"
)

var (
	decaysTrees  []string
	decaysLimit  int
	decaysRecord bool
)

var decaysCmd = &cobra.Command{
	Use:   "decays <input.root>",
	Short: "Count the truth decay chains of the candidates",
	Long: `Count how often each truth decay chain occurs among the candidates that
pass the loose selection (legal B, q2 threshold, D meson first daughter) and
print them most frequent first.

With --record the counts are added to the run ledger and the accumulated
totals are printed as well.

Examples:
  rdxrw decays mc.root
  rdxrw decays mc.root --tree TupleBminus/DecayTree:b --limit 20
  rdxrw decays mc.root --record`,
	Args: cobra.ExactArgs(1),
	RunE: runDecays,
}

func init() {
	decaysCmd.Flags().StringSliceVarP(&decaysTrees, "tree", "t", nil, "input tree as path:prefix (repeatable)")
	decaysCmd.Flags().IntVarP(&decaysLimit, "limit", "n", 0, "max signatures shown per tree (0 = all)")
	decaysCmd.Flags().BoolVar(&decaysRecord, "record", false, "add the counts to the run ledger")
}

func runDecays(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if decaysRecord {
		if err := requireLedger(); err != nil {
			return err
		}
	}
	trees, err := parseTrees(decaysTrees)
	if err != nil {
		return err
	}

	all := make(map[string]db.SignatureCount)
	for _, t := range trees {
		counts, seen, err := countSignatures(ctx, args[0], t)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Tree %s: %d candidates, %d selected\n", t, seen, countAll(counts))
		printSignatures(w, counts, decaysLimit)
		fmt.Fprintln(w)

		for k, c := range counts {
			sc := all[k]
			sc.Label = c.Label
			sc.Count += c.Count
			all[k] = sc
		}
	}

	if !decaysRecord {
		return nil
	}
	if err := ledger.RecordSignatures(ctx, all); err != nil {
		return err
	}

	limit := decaysLimit
	if limit <= 0 {
		limit = 20
	}
	top, err := ledger.TopSignatures(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Ledger totals:")
	for _, s := range top {
		fmt.Fprintf(w, "  %10d  %s\n", s.Count, s.Label)
	}
	return nil
}

// countSignatures tallies the decay signatures of the loosely matched
// candidates of one tree, keyed by signature key.
func countSignatures(ctx context.Context, path string, t ntuple.Tree) (map[string]db.SignatureCount, int64, error) {
	src, err := ntuple.Open(path, t)
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()

	counts := make(map[string]db.SignatureCount)
	err = src.Each(ctx, func(ev truth.Event) error {
		if !truth.LooseMatchOK(ev.Q2, ev.IsTau, ev.BID, ev.Hadrons[0].ID) {
			return nil
		}
		sig := ev.Signature()
		key := sig.Key()
		sc := counts[key]
		if sc.Count == 0 {
			sc.Label = sig.String()
		}
		sc.Count++
		counts[key] = sc
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("tree %s: %w", t, err)
	}
	return counts, src.Entries(), nil
}

// sortedSignatures orders counts most frequent first, ties by label.
func sortedSignatures(counts map[string]db.SignatureCount) []db.SignatureCount {
	out := make([]db.SignatureCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b db.SignatureCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

func printSignatures(w io.Writer, counts map[string]db.SignatureCount, limit int) {
	sorted := sortedSignatures(counts)
	if len(sorted) == 0 {
		fmt.Fprintln(w, "  No selected candidates")
		return
	}

	n := countAll(counts)
	for i, s := range sorted {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "  ... %d more\n", len(sorted)-limit)
			break
		}
		fmt.Fprintf(w, "  %10d  %6.2f%%  %s\n", s.Count, 100*float64(s.Count)/float64(n), s.Label)
	}
}

func countAll(counts map[string]db.SignatureCount) int64 {
	var n int64
	for _, c := range counts {
		n += c.Count
	}
	return n
}
