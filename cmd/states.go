package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"admhist/pkg/loader"
	"admhist/pkg/storage"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List the persisted hierarchy snapshots",
	Long: `Lists every persisted snapshot with its validity span. With --at the
snapshot covering the given date is resolved and its full address list is
printed instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath := databasePath()
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("database not found: %s", dbPath)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		atStr, _ := cmd.Flags().GetString("at")
		if atStr != "" {
			at, err := loader.ParseDate(atStr)
			if err != nil {
				return err
			}
			entries, err := db.StateEntriesAt(context.Background(), at)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.DistrictID == "" {
					fmt.Printf("%s/%s\n", e.Country, e.RegionID)
				} else {
					fmt.Printf("%s/%s/%s\n", e.Country, e.RegionID, e.DistrictID)
				}
			}
			return nil
		}

		states, err := db.ListStates(context.Background())
		if err != nil {
			return err
		}
		for _, s := range states {
			fmt.Printf("%d  [%s, %s)\n", s.ID, s.ValidFrom.Format("2006-01-02"), s.ValidTo.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
	statesCmd.Flags().String("at", "", "Print the full address list of the snapshot covering this date (YYYY-MM-DD)")
}
