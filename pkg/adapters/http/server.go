package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/pkg/domain"
	"github.com/finagentlabs/finagent/pkg/ports"
)

// Runner defines the agent surface the HTTP layer depends on.
type Runner interface {
	Run(ctx context.Context, query, conversationID string) (*finagent.Result, error)
	RunStream(ctx context.Context, query, conversationID string) (<-chan domain.NodeEvent, <-chan error)
	History(ctx context.Context, conversationID string) ([]ports.RunRecord, error)
	Tools() ports.ToolRegistry
}

// Server exposes the agent over HTTP.
type Server struct {
	agent  Runner
	logger *slog.Logger
}

// NewHandler builds the chi router for the agent API.
func NewHandler(agent Runner, logger *slog.Logger) http.Handler {
	s := &Server{agent: agent, logger: logger}

	r := chi.NewRouter()
	r.Post("/chat", s.Chat)
	r.Post("/chat/stream", s.ChatStream)
	r.Get("/conversations/{id}", s.GetConversation)
	r.Get("/tools", s.GetTools)
	r.Get("/healthz", s.GetHealth)
	r.Handle("/metrics", promhttp.Handler())
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ChatRequest is the body of POST /chat and POST /chat/stream.
type ChatRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Chat handles the POST /chat request: one batch run per query.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("chat: invalid request body", "err", err)
		return
	}
	if body.Query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}

	result, err := s.agent.Run(r.Context(), body.Query, body.ConversationID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		s.logger.Error("chat: run failed", "err", err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, result)
}

// ChatStream handles POST /chat/stream: one SSE event per completed graph
// node, then a terminal "done" event. A reasoning failure mid-run yields a
// "degraded" event carrying the fallback answer instead of an HTTP error,
// since headers are already on the wire.
func (s *Server) ChatStream(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("chat stream: invalid request body", "err", err)
		return
	}
	if body.Query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("chat stream: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, errs := s.agent.RunStream(r.Context(), body.Query, body.ConversationID)

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("chat stream: event encode failed", "err", err)
			continue
		}
		fmt.Fprintf(w, "event: node\ndata: %s\n\n", payload)
		flusher.Flush()
	}

	if err := <-errs; err != nil {
		if errors.Is(err, context.Canceled) || r.Context().Err() != nil {
			s.logger.Info("chat stream: client disconnected")
			return
		}
		s.logger.Warn("chat stream: degrading after reasoner failure", "err", err)
		payload, _ := json.Marshal(map[string]string{"answer": finagent.DegradedAnswer()})
		fmt.Fprintf(w, "event: degraded\ndata: %s\n\n", payload)
		flusher.Flush()
		return
	}

	fmt.Fprintf(w, "event: done\ndata: {}\n\n")
	flusher.Flush()
}

// GetConversation handles GET /conversations/{id}: persisted run history.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := s.agent.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("History error: %v", err), http.StatusInternalServerError)
		s.logger.Error("get conversation failed", "conversation_id", id, "err", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, records)
}

// GetTools handles GET /tools: the tool palette with schemas.
func (s *Server) GetTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.agent.Tools().Specs())
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
