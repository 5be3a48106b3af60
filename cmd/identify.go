package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"admhist/internal/utils"
	"admhist/pkg/loader"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <pairs.csv>",
	Short: "Find the snapshot matching an external (region, district) list",
	Long: `Replays the history in memory and matches the given CSV of homeland
(region, district) pairs against every snapshot. Prints the exact match when
one exists, otherwise the closest candidates with their differences.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHistory(cmd)
		if err != nil {
			return err
		}
		if err := h.Replay(); err != nil {
			return err
		}
		if _, err := os.Stat(args[0]); err != nil {
			return fmt.Errorf("pair list not found: %s", args[0])
		}
		pairs, err := loader.LoadRegionDistrictCSV(args[0], h.Regions, h.Districts, utils.Log)
		if err != nil {
			return err
		}

		exact, closest, err := h.IdentifyState(pairs)
		if err != nil {
			return err
		}
		if exact != nil {
			fmt.Printf("exact match: %s\n", exact.State.Span)
			return nil
		}
		fmt.Println("no exact match; closest snapshots:")
		for _, m := range closest {
			fmt.Printf("%s  distance=%d\n", m.State.Span, m.Distance)
			for _, p := range m.MissingFromState {
				fmt.Printf("  missing: %s / %s\n", p[0], p[1])
			}
			for _, p := range m.ExtraInState {
				fmt.Printf("  extra:   %s / %s\n", p[0], p[1])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
	addInputFlags(identifyCmd)
}
