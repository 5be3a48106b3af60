package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"admhist/internal/utils"
	"admhist/pkg/admstate"
	"admhist/pkg/history"
	"admhist/pkg/loader"
	"admhist/pkg/storage"
	"admhist/pkg/timespan"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild the full hierarchy history from the input documents",
	Long: `Loads the unit catalogs, the initial hierarchy and the change list,
replays every change in chronological order and reports one snapshot per
change date. With --save the result is persisted to the SQLite database;
with --csv-dir every snapshot is also exported as a CSV address list.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := loadHistory(cmd)
		if err != nil {
			return err
		}
		if err := h.Replay(); err != nil {
			return err
		}
		utils.Log.Infof("replay finished: %d snapshots, %d changes", len(h.StatesList), len(h.ChangesList))

		summarize, _ := cmd.Flags().GetBool("summary")
		if summarize {
			for _, line := range h.Summarize() {
				fmt.Println(line)
			}
		} else {
			for _, st := range h.StatesList {
				fmt.Println(st.String())
			}
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			db, err := storage.Open(databasePath())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.SaveHistory(context.Background(), h); err != nil {
				return err
			}
			utils.Log.Infof("history saved to %s", databasePath())
		}

		if csvDir, _ := cmd.Flags().GetString("csv-dir"); csvDir != "" {
			if err := exportSnapshots(h, csvDir); err != nil {
				return err
			}
			utils.Log.Infof("snapshots exported to %s", csvDir)
		}
		return nil
	},
}

// loadHistory resolves the input paths and the global timespan from flags,
// falling back to the config file, and builds an un-replayed history.
func loadHistory(cmd *cobra.Command) (*history.History, error) {
	startStr := inputValue(cmd, "start", "timespan.start")
	endStr := inputValue(cmd, "end", "timespan.end")
	if startStr == "" || endStr == "" {
		return nil, fmt.Errorf("global timespan not set: use --start/--end or timespan.start/timespan.end in the config file")
	}
	start, err := loader.ParseDate(startStr)
	if err != nil {
		return nil, err
	}
	end, err := loader.ParseDate(endStr)
	if err != nil {
		return nil, err
	}
	span, err := timespan.New(start, end)
	if err != nil {
		return nil, err
	}

	in := loader.Inputs{
		RegionsPath:      inputValue(cmd, "regions", "inputs.regions"),
		DistrictsPath:    inputValue(cmd, "districts", "inputs.districts"),
		InitialStatePath: inputValue(cmd, "initial-state", "inputs.initial_state"),
		ChangesPath:      inputValue(cmd, "changes", "inputs.changes"),
		Span:             span,
	}
	for name, path := range map[string]string{
		"regions":       in.RegionsPath,
		"districts":     in.DistrictsPath,
		"initial state": in.InitialStatePath,
		"changes":       in.ChangesPath,
	} {
		if path == "" {
			return nil, fmt.Errorf("%s document not set (flag or config file)", name)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s document not found: %s", name, path)
		}
	}
	return loader.Load(in)
}

func inputValue(cmd *cobra.Command, flag, key string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viper.GetString(key)
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("regions", "", "Path to the region catalog JSON")
	cmd.Flags().String("districts", "", "Path to the district catalog JSON")
	cmd.Flags().String("initial-state", "", "Path to the initial hierarchy JSON")
	cmd.Flags().String("changes", "", "Path to the change list JSON")
	cmd.Flags().String("start", "", "Global timespan start (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Global timespan end (YYYY-MM-DD)")
}

func exportSnapshots(h *history.History, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, st := range h.StatesList {
		rows, err := st.ToAddressList(admstate.ListOptions{})
		if err != nil {
			return err
		}
		name := fmt.Sprintf("state_%s.csv", st.Span.Start.Format("2006-01-02"))
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		w := csv.NewWriter(f)
		if err := w.Write([]string{"country", "region", "district"}); err != nil {
			f.Close()
			return err
		}
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				f.Close()
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addInputFlags(replayCmd)
	replayCmd.Flags().Bool("summary", false, "Print one line per change instead of the snapshots")
	replayCmd.Flags().Bool("save", false, "Persist the replayed history to the SQLite database")
	replayCmd.Flags().String("csv-dir", "", "Export every snapshot as a CSV address list into this directory")
}
