package main

import (
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd builds the knowledge-server root command: one persistent
// --config flag shared by every subcommand.
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "knowledge-server",
		Short: "Self-hosted semantic knowledge server exposed over MCP",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: ./config.yaml)")
	root.AddCommand(serveCmd())
	return root
}
