package main

import (
	"fmt"

	"confnode/internal/serverfacts"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of confnode",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "confnode version %s\n", serverfacts.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
