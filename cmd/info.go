package cmd

import (
	"fmt"

	"github.com/neurolab/faapipe/internal/edfio"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file.edf]",
	Short: "Show the header of an EDF recording",
	Long: `Display the EDF header and per-signal details of a recording without
processing it. Useful for checking channel labels before writing a rename
table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hdr, err := edfio.ReadHeader(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("=== RECORDING ===\n")
		fmt.Printf("patient: %s\n", hdr.PatientID)
		fmt.Printf("recording: %s\n", hdr.RecordingID)
		fmt.Printf("start: %s\n", hdr.StartTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("data records: %d x %s\n", hdr.DataRecords, hdr.DataRecordDuration)
		fmt.Printf("signals: %d\n", hdr.SignalCount)

		fmt.Printf("\n=== SIGNALS ===\n")
		recordSecs := hdr.DataRecordDuration.Seconds()
		for i, sig := range hdr.Signals {
			rate := 0.0
			if recordSecs > 0 {
				rate = float64(sig.SamplesPerRecord) / recordSecs
			}
			fmt.Printf("%2d. %-16s %6.1f Hz  [%g, %g] %s\n",
				i, sig.Label, rate, sig.PhysicalMin, sig.PhysicalMax, sig.PhysicalDimension)
		}
		return nil
	},
}
