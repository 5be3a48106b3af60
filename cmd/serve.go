package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"admhist/internal/server"
	"admhist/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the persisted history over a JSON API",
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

		listenAddr, _ := cmd.Flags().GetString("listen")
		user := viper.GetString("server.username")
		pass := viper.GetString("server.password")
		return server.New(db, user, pass).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
