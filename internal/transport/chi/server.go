// internal/transport/chi/server.go

// Package chi exposes the discovery assistant over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/validation"
	"product-discovery/internal/models"
)

const maxRequestBytes = 64 << 10

// Assistant is the pipeline surface the transport needs.
type Assistant interface {
	HandleMessage(ctx context.Context, utt models.Utterance) models.Reply
	Suggest(ctx context.Context) []string
}

// Check reports whether one dependency is ready to serve.
type Check func(ctx context.Context) error

var chatRequestSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"message"},
	"properties": map[string]interface{}{
		"message": map[string]interface{}{"type": "string", "maxLength": 1000},
		"user_id": map[string]interface{}{"type": []interface{}{"string", "null"}, "maxLength": 128},
		"location": map[string]interface{}{
			"type":     []interface{}{"object", "null"},
			"required": []interface{}{"latitude", "longitude"},
			"properties": map[string]interface{}{
				"latitude":  map[string]interface{}{"type": "number", "minimum": -90, "maximum": 90},
				"longitude": map[string]interface{}{"type": "number", "minimum": -180, "maximum": 180},
			},
		},
	},
})

type chatRequest struct {
	Message  string           `json:"message"`
	UserID   string           `json:"user_id"`
	Location *models.GeoPoint `json:"location"`
}

type chatResponse struct {
	models.Reply
	UserID string `json:"userId,omitempty"`
}

type errorResponse struct {
	Code    string                       `json:"code"`
	Message string                       `json:"message"`
	Errors  []validation.ValidationError `json:"errors,omitempty"`
}

// Server implements the HTTP handlers.
type Server struct {
	assistant Assistant
	checks    map[string]Check
	service   string
	logger    logger.Logger
}

func NewServer(assistant Assistant, checks map[string]Check, service string, log logger.Logger) *Server {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Server{assistant: assistant, checks: checks, service: service, logger: log}
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body is too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "could not read request body", nil)
		return
	}

	if result := chatRequestSchema.ValidateJSON(body); !result.Valid {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid chat request", result.Errors)
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid chat request", nil)
		return
	}
	// An empty user id keeps the turn stateless: nothing is read from or
	// written to conversation memory.
	reply := s.assistant.HandleMessage(r.Context(), models.Utterance{
		Text:     req.Message,
		UserID:   req.UserID,
		Location: req.Location,
	})
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, UserID: req.UserID})
}

// Suggest handles GET /suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": s.assistant.Suggest(r.Context()),
	})
}

// Health handles GET /health. It only reports that the process is up.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.service,
	})
}

// Ready handles GET /ready by running every dependency check.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, errs []validation.ValidationError) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Errors: errs})
}
