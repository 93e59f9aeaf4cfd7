package cmd

import (
	"fmt"
	"os"

	"R2FM/config"
	"R2FM/logger"
	"R2FM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "r2fm",
	Short: "R2FM is a music catalog service with an offline-capable player.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
