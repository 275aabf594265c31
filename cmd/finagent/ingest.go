package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finagentlabs/finagent/internal/cli"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest documents from a directory",
	Long: `Loads .txt, .md and .csv files into the document store and the
retrieval index so vector_search and sql_query can find them.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		docType, _ := cmd.Flags().GetString("type")

		ctx := context.Background()
		app, err := cli.Build(ctx, cfg, false)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		count, err := cli.Ingest(ctx, app, args[0], docType)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d document(s)\n", count)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("type", "t", "", "Document type tag (e.g. invoice, bank_statement, gst_return)")
}
