package gatewayhttp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/relaylayer/llmgw/internal/pipeline"
	"github.com/relaylayer/llmgw/internal/registry"
	"github.com/relaylayer/llmgw/internal/translator"
)

// Server wires the inbound OpenAI-compatible/Anthropic/Responses HTTP
// surface to one Pipeline.
type Server struct {
	Pipeline *pipeline.Pipeline
	Registry *registry.Registry
	Logger   *slog.Logger
}

// NewServer builds the http.Handler the teacher's main would hand
// straight to http.Server.Handler.
func NewServer(p *pipeline.Pipeline, r *registry.Registry, logger *slog.Logger) http.Handler {
	s := &Server{Pipeline: p, Registry: r, Logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", s.handleCompletions(translator.FamilyOpenAI))
	mux.HandleFunc("POST /v1/messages", s.handleCompletions(translator.FamilyAnthropic))
	mux.HandleFunc("POST /v1/responses", s.handleCompletions(translator.FamilyOpenAIResponses))
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

func (s *Server) handleCompletions(clientFamily translator.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		headers := collectHeaders(r.Header)
		result := s.Pipeline.Handle(r.Context(), clientFamily, headers, body)

		if result.Stream != nil {
			s.writeStream(w, result)
		} else {
			s.writeBuffered(w, result)
		}

		s.Logger.Debug("request handled",
			"family", clientFamily, "state", result.State, "status", result.StatusCode,
			"duration", time.Since(start))
	}
}

func (s *Server) writeBuffered(w http.ResponseWriter, result *pipeline.Result) {
	w.Header().Set("content-type", "application/json")
	if result.Err != nil && result.Err.RetryAfter > 0 {
		w.Header().Set("Retry-After", formatRetryAfter(result.Err.RetryAfter))
	}
	w.WriteHeader(statusOrDefault(result.StatusCode))
	_, _ = w.Write(result.Body)
}

func (s *Server) writeStream(w http.ResponseWriter, result *pipeline.Result) {
	w.Header().Set("content-type", "text/event-stream")
	w.Header().Set("cache-control", "no-cache")
	w.Header().Set("connection", "keep-alive")
	w.WriteHeader(statusOrDefault(result.StatusCode))

	flusher, _ := w.(http.Flusher)
	for frame := range result.Stream {
		_, _ = w.Write(frame)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	entries := s.Registry.Models()
	resp := modelsListResponse{Object: "list"}
	now := time.Now().Unix()
	for _, e := range entries {
		resp.Data = append(resp.Data, modelEntry{ID: e.ID, Object: "model", Created: now, OwnedBy: e.OwnedBy})
	}
	w.Header().Set("content-type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type modelsListResponse struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

func collectHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name := range h {
		out[strings.ToLower(name)] = h.Get(name)
	}
	return out
}

func statusOrDefault(code int) int {
	if code == 0 {
		return http.StatusOK
	}
	return code
}

func formatRetryAfter(seconds float64) string {
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(int(seconds + 0.5))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"type": "BadRequest", "message": message}})
}
