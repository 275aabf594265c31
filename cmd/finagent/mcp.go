package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finagentlabs/finagent/internal/cli"
	mcpadapter "github.com/finagentlabs/finagent/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the agent as an MCP Server, exposing both the end-to-end
"ask" tool and the individual financial tools to MCP clients.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := context.Background()
		app, err := cli.Build(ctx, cfg, true)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		srv := mcpadapter.NewServer(app.Agent, app.Logger)

		switch transport {
		case "stdio":
			// Keep logs off Stdout so they don't corrupt JSON-RPC.
			log.SetOutput(os.Stderr)
			app.Logger.Info("starting MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				app.Logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			app.Logger.Info("starting MCP server (SSE)", "port", port)

			sseCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(sseCtx, port); err != nil && err != http.ErrServerClosed {
				app.Logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8090, "Port for SSE transport")
}
