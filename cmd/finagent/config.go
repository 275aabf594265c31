package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finagentlabs/finagent/internal/config"
)

// loadConfig loads configuration and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg
}
