package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurolab/faapipe/internal/batch"
	"github.com/neurolab/faapipe/internal/runlog"

	"github.com/spf13/cobra"
)

const runLogName = "faapipe_run.log"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every recording in the working directory",
	Long: `Discover .edf recordings and the single channel rename table, then run
the cleaning and FAA pipeline on each file. A failure in one file is logged
and does not stop the rest of the batch; the exit status is non-zero if any
file failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlagOverrides(cmd)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		outDir := cfg.OutputDirectory()
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		log, err := runlog.New(filepath.Join(outDir, runLogName), os.Stderr)
		if err != nil {
			return err
		}
		defer log.Close()

		summary, err := batch.New(cfg, log).Run()
		if summary != nil {
			printSummary(summary)
		}
		return err
	},
}

func init() {
	flags := runCmd.Flags()
	flags.StringP("input", "i", "", "input directory with .edf files and the rename table (overrides config)")
	flags.StringP("out-dir", "o", "", "output directory (default: input directory)")
	flags.StringSlice("files", nil, "explicit recording paths, bypassing discovery")
	flags.String("rename-table", "", "explicit rename table path, bypassing discovery")
	flags.Float64("low", 0, "band-pass low cutoff in Hz (default 1)")
	flags.Float64("high", 0, "band-pass high cutoff in Hz (default 40)")
	flags.Float64("mains", 0, "mains frequency for the notch filter: 50 or 60 Hz (default 50)")
	flags.String("reference", "", "reference scheme: average or none (default average)")
	flags.String("montage", "", "montage name or 'off' to disable (default standard_1020)")
	flags.String("left", "", "left electrode label (default F3)")
	flags.String("right", "", "right electrode label (default F4)")
	flags.Float64("bad-z", 0, "bad-channel robust z-score threshold (default 5)")
	flags.Bool("no-bad-channels", false, "skip bad-channel detection and interpolation")
	flags.Bool("overwrite", false, "replace existing output artifacts")
}

// applyFlagOverrides folds explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()

	if v, _ := flags.GetString("input"); v != "" {
		cfg.Input.Directory = v
	}
	if v, _ := flags.GetString("out-dir"); v != "" {
		cfg.Output.Directory = v
	}
	if v, _ := flags.GetStringSlice("files"); len(v) > 0 {
		cfg.Input.Files = v
	}
	if v, _ := flags.GetString("rename-table"); v != "" {
		cfg.Input.RenameTable = v
	}
	if v, _ := flags.GetFloat64("low"); v > 0 {
		cfg.Filter.LowHz = v
	}
	if v, _ := flags.GetFloat64("high"); v > 0 {
		cfg.Filter.HighHz = v
	}
	if v, _ := flags.GetFloat64("mains"); v > 0 {
		cfg.Filter.MainsHz = v
	}
	if v, _ := flags.GetString("reference"); v != "" {
		cfg.Reference = v
	}
	if v, _ := flags.GetString("montage"); v != "" {
		if v == "off" {
			cfg.Montage = ""
		} else {
			cfg.Montage = v
		}
	}
	if v, _ := flags.GetString("left"); v != "" {
		cfg.Electrodes.Left = v
	}
	if v, _ := flags.GetString("right"); v != "" {
		cfg.Electrodes.Right = v
	}
	if v, _ := flags.GetFloat64("bad-z"); v > 0 {
		cfg.BadChannels.ZThreshold = v
	}
	if v, _ := flags.GetBool("no-bad-channels"); v {
		cfg.BadChannels.Disabled = true
	}
	if v, _ := flags.GetBool("overwrite"); v {
		cfg.Output.Overwrite = true
	}
}

func printSummary(summary *batch.Summary) {
	for _, res := range summary.Results {
		if res.Err != nil {
			fmt.Printf("FAILED  %s: %v\n", res.Input, res.Err)
			continue
		}
		fmt.Printf("OK      %s: faa_log10=%.4f (left=%s right=%s)\n",
			res.Input, res.FAA.FAALog10, res.FAA.LeftLabel, res.FAA.RightLabel)
	}
	fmt.Printf("%d/%d files succeeded\n", len(summary.Results)-summary.Failed(), len(summary.Results))
}
