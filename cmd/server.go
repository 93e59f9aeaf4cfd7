package cmd

import (
	"R2FM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the R2FM HTTP server",
	Long:  `Run the R2FM catalog server: song listing, playback URL issuance, uploads and auth.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
