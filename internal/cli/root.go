// Package cli provides the command-line interface for rdxrw.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/rdxrw/internal/config"
	"github.com/raphaelgruber/rdxrw/internal/db"
	"github.com/raphaelgruber/rdxrw/internal/hammer"
	"github.com/raphaelgruber/rdxrw/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logging and optional ledger
	cfg     config.Config
	logging *config.Logging
	ledger  *db.Client
)

var _ service.Ledger = (*db.Client)(nil)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rdxrw",
	Short: "Form-factor reweighting of semileptonic B decays",
	Long: `rdxrw reweights simulated B -> D(*) tau/mu nu candidates from the form
factors they were generated with to a target parametrisation.

Each candidate's truth decay is rebuilt from the input ntuple, sent to the
weighting engine, and written out with a nominal weight and one weight per
form-factor variation.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func setup(cmd *cobra.Command, args []string) error {
	// Skip config and ledger for version and help commands
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	logging = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logging.Logger)

	if !cfg.LedgerEnabled() {
		return nil
	}

	ctx := cmd.Context()
	ledger, err = db.NewClient(ctx, db.Config{
		URL:       cfg.LedgerURL,
		Namespace: cfg.LedgerNamespace,
		Database:  cfg.LedgerDatabase,
		Username:  cfg.LedgerUser,
		Password:  cfg.LedgerPass,
		AuthLevel: cfg.LedgerAuthLevel,
	}, logging.Logger)
	if err != nil {
		return fmt.Errorf("connect to ledger: %w", err)
	}
	if err := ledger.InitSchema(ctx); err != nil {
		return fmt.Errorf("initialize ledger schema: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	closeAll()
}

// closeAll closes the ledger and the log file. Safe to call twice.
func closeAll() {
	if ledger != nil {
		if err := ledger.Close(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close ledger: %v\n", err)
		}
		ledger = nil
	}
	if logging != nil {
		_ = logging.Close()
		logging = nil
	}
}

// runLedger returns the ledger as a service.Ledger, keeping a nil client nil.
func runLedger() service.Ledger {
	if ledger == nil {
		return nil
	}
	return ledger
}

// requireLedger fails commands that only make sense with a ledger.
func requireLedger() error {
	if ledger == nil {
		return fmt.Errorf("run ledger not configured (set RDXRW_LEDGER_URL)")
	}
	return nil
}

// loadSetup builds the engine run setup from a run name, the configured
// units and optional variation tables. An empty run uses the configured one.
func loadSetup(run, units, schemes string) (hammer.RunSetup, error) {
	if run == "" {
		run = cfg.Run
	}
	r, err := hammer.ParseRun(run)
	if err != nil {
		return hammer.RunSetup{}, err
	}

	tables := hammer.DefaultTables()
	if schemes != "" {
		if tables, err = hammer.LoadTablesFile(schemes); err != nil {
			return hammer.RunSetup{}, err
		}
	}
	return hammer.NewRunSetup(r, units, tables)
}

// openEngine starts an engine session and configures it for setup.
func openEngine(ctx context.Context, setup hammer.RunSetup, logger *slog.Logger) (*hammer.Bridge, error) {
	bridge, err := hammer.Dial(ctx, hammer.BridgeConfig{
		URL:     cfg.EngineURL,
		Timeout: cfg.EngineTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	if err := hammer.Prepare(ctx, bridge, setup); err != nil {
		_ = bridge.Close()
		return nil, fmt.Errorf("prepare engine: %w", err)
	}
	return bridge, nil
}

// Execute adds all child commands to the root command and runs it until
// completion or an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// PersistentPostRun is skipped when a command fails.
	defer closeAll()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(reweightCmd)
	rootCmd.AddCommand(decaysCmd)
	rootCmd.AddCommand(schemesCmd)
	rootCmd.AddCommand(toyCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}
