package cmd

import (
	"soundvault/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the soundvault HTTP server",
	Long:  `Start the soundvault HTTP server, serving the track, playlist, favorites and conversion APIs`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
