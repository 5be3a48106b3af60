package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"admhist/pkg/loader"
	"admhist/pkg/storage"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show persisted change records (default 50)",
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

		opts := storage.ChangeListOptions{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.District, _ = cmd.Flags().GetString("district")
		if sinceStr, _ := cmd.Flags().GetString("since"); sinceStr != "" {
			since, err := loader.ParseDate(sinceStr)
			if err != nil {
				return err
			}
			opts.Since = since
		}

		list, err := db.ListChanges(context.Background(), opts)
		if err != nil {
			return err
		}
		for _, c := range list {
			order := " "
			if c.Order != nil {
				order = fmt.Sprintf("%d", *c.Order)
			}
			fmt.Printf("%s  %-14s  order=%s  %s\n", c.Date.Format("2006-01-02"), c.Kind, order, c.Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().Int("limit", 50, "Number of changes to show")
	changesCmd.Flags().String("since", "", "Only changes dated on or after this date (YYYY-MM-DD)")
	changesCmd.Flags().String("district", "", "Only changes involving this district")
}
