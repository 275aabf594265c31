package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/pkg/ports"
)

// Server exposes the agent and its tool palette as an MCP server, so MCP
// clients can either delegate whole questions to the agent or call the
// financial tools directly.
type Server struct {
	agent     *finagent.Agent
	tools     ports.ToolRegistry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server over the agent.
func NewServer(agent *finagent.Agent, logger *slog.Logger) *Server {
	s := &Server{
		agent:     agent,
		tools:     agent.Tools(),
		logger:    logger,
		mcpServer: server.NewMCPServer("finagent-mcp", "1.0.0"),
	}
	s.registerAsk()
	s.registerPalette()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerAsk() {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a financial-document question end to end: classify, plan, execute tools, and synthesize a cited answer."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("conversation_id", mcp.Description("Conversation id for history persistence (optional)")),
	)
	s.mcpServer.AddTool(askTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		query, _ := args["query"].(string)
		if query == "" {
			return mcp.NewToolResultError("missing query"), nil
		}
		conversationID, _ := args["conversation_id"].(string)

		result, err := s.agent.Run(ctx, query, conversationID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// registerPalette exposes each registry tool directly, mapping its JSON
// schema through unchanged.
func (s *Server) registerPalette() {
	for _, spec := range s.tools.Specs() {
		spec := spec
		opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
		if spec.Parameters != nil {
			if raw, err := json.Marshal(spec.Parameters); err == nil {
				opts = append(opts, mcp.WithRawInputSchema(raw))
			}
		}
		tool := mcp.NewTool(spec.Name, opts...)
		s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			payload, err := s.tools.Invoke(ctx, spec.Name, request.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", spec.Name, err)), nil
			}
			return mcp.NewToolResultText(payload), nil
		})
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("finagent://tools", "Tool Palette",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.tools.Specs())
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool specs: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "finagent://tools",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
