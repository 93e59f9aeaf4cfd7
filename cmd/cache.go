package cmd

import (
	"fmt"

	"R2FM/config"
	"R2FM/core/offline"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the offline song cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry from the offline song cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		store, err := offline.Open(cfg.OfflineCachePath)
		if err != nil {
			return fmt.Errorf("open offline cache: %w", err)
		}
		defer store.Close()

		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear offline cache: %w", err)
		}

		fmt.Printf("Offline cache cleared: %s\n", cfg.OfflineCachePath)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
