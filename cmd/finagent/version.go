package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finagentlabs/finagent"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(finagent.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
