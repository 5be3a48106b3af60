package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"admhist/pkg/storage"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Show the persisted timeline and event log of one unit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		name, _ := cmd.Flags().GetString("name")
		if kind != "region" && kind != "district" {
			return fmt.Errorf("invalid --kind %q: must be region or district", kind)
		}
		if name == "" {
			return fmt.Errorf("--name is required")
		}
		dbPath := databasePath()
		if _, err := os.Stat(dbPath); err != nil {
			return fmt.Errorf("database not found: %s", dbPath)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		timeline, err := db.UnitTimeline(context.Background(), kind, name)
		if err != nil {
			return err
		}
		if len(timeline) == 0 {
			return fmt.Errorf("no persisted states for %s %q", kind, name)
		}
		fmt.Printf("%s %s\n", kind, name)
		for _, st := range timeline {
			line := fmt.Sprintf("  [%s, %s)  name=%s", st.ValidFrom.Format("2006-01-02"), st.ValidTo.Format("2006-01-02"), st.Name)
			if st.SeatName != "" {
				line += "  seat=" + st.SeatName
			}
			if st.DistType != "" {
				line += "  type=" + st.DistType
			}
			fmt.Println(line)
		}

		events, err := db.UnitEvents(context.Background(), kind, name)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			fmt.Println("events:")
			for _, e := range events {
				fmt.Printf("  %s  %-16s  %s\n", e.Date.Format("2006-01-02"), e.Event, e.Summary)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	unitsCmd.Flags().String("kind", "district", "Unit kind: region or district")
	unitsCmd.Flags().String("name", "", "Canonical unit identifier")
}
