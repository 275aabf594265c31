package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finagentlabs/finagent/internal/cli"
)

// toolsCmd represents the tools command
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool palette",
	Long:  `Prints the registered tools with their descriptions and parameter schemas.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		jsonMode, _ := cmd.Flags().GetBool("json")

		app, err := cli.Build(context.Background(), cfg, false)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		specs := app.Agent.Tools().Specs()
		if jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(specs)
			return
		}
		for _, spec := range specs {
			fmt.Printf("%-20s %s\n", spec.Name, spec.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().Bool("json", false, "Emit JSON specs")
}
