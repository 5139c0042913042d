package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/neurolab/faapipe/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	cfgFile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "faapipe",
	Short: "Batch EEG preprocessing and frontal alpha asymmetry extraction",
	Long: `faapipe cleans raw EDF EEG recordings and computes frontal alpha
asymmetry (FAA), the log10 power ratio between two frontal electrodes in the
8-13 Hz band.

Place one or more .edf recordings and exactly one two-column channel rename
table (.tsv or .csv) in a working directory, then invoke faapipe once. Each
recording is renamed, re-referenced, band-pass and notch filtered, checked
for bad channels, and persisted as <name>_clean.edf together with a
<name>_faa.csv summary. A run log covers the whole batch.

Without a subcommand, faapipe behaves like 'faapipe run'.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		// The info command reads a single file and needs no batch config.
		if cmd.Name() == "info" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, optional)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configCmd)

	// Allow running the batch straight from the root command.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

// setupLogging configures slog for terminal diagnostics. The batch run log is
// separate and always written; this only controls console chatter.
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
