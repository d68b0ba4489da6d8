// Package server exposes the WebSocket subscription endpoint and the
// supporting HTTP API for voices and stored audio.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/autovid/voice-generator/internal/voices"
	"github.com/book-expert/logger"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Subscription protocol actions.
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

const engineName = "google"

// Previewer synthesizes a short voice sample and returns its URL.
type Previewer interface {
	Preview(ctx context.Context, styles core.VoiceStyles) (string, error)
}

// Server wires the subscription registry and the audio store to the
// outside world.
type Server struct {
	registry core.Registry
	previews Previewer
	store    core.AudioStore
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// New creates a Server.
func New(registry core.Registry, previews Previewer, store core.AudioStore, log *logger.Logger) *Server {
	return &Server{
		registry: registry,
		previews: previews,
		store:    store,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				// Cross-origin policy is enforced upstream by the gateway.
				return true
			},
		},
	}
}

// Routes returns the HTTP router for the service surface.
func (s *Server) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/healthz", s.handleHealth)
	router.Get("/ws", s.handleWebSocket)
	router.Get("/api/voices", s.handleListVoices)
	router.Get("/api/voices/preview", s.handlePreview)
	router.Get("/audio/*", s.handleAudio)

	return router
}

// subscribeRequest is one client message on the subscription socket.
type subscribeRequest struct {
	Action string `json:"action"`
	JobID  string `json:"job_id"`
}

// handleWebSocket upgrades the connection and serves the subscription
// protocol until the client disconnects. Disconnecting removes every
// registry entry held by this connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed: %v", err)

		return
	}

	channel := newWSChannel(conn)

	defer func() {
		s.registry.Unsubscribe(channel)

		closeErr := conn.Close()
		if closeErr != nil {
			s.log.Warn("Failed to close websocket connection: %v", closeErr)
		}
	}()

	for {
		var req subscribeRequest

		err = conn.ReadJSON(&req)
		if err != nil {
			// Read errors mean the client went away (or sent garbage);
			// either way the deferred unsubscribe cleans up.
			return
		}

		switch req.Action {
		case actionSubscribe:
			if req.JobID == "" {
				s.log.Warn("Subscribe request without job_id ignored")

				continue
			}

			s.registry.Subscribe(req.JobID, channel)
		case actionUnsubscribe:
			s.registry.Unsubscribe(channel)
		default:
			s.log.Warn("Unknown subscription action %q ignored", req.Action)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// voicesResponse mirrors the voices listing shape of the upstream API.
type voicesResponse struct {
	Engine string           `json:"engine"`
	Voices []voices.Listing `json:"voices"`
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")
	if language == "" {
		writeJSONError(w, http.StatusBadRequest, "language parameter is required")

		return
	}

	writeJSON(w, http.StatusOK, voicesResponse{
		Engine: engineName,
		Voices: voices.List(language),
	})
}

// previewResponse is the voice preview reply.
type previewResponse struct {
	Success   bool   `json:"success"`
	SampleURL string `json:"sampleUrl"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gender := query.Get("gender")
	style := query.Get("style")
	language := query.Get("language")

	if gender == "" || style == "" || language == "" {
		writeJSONError(w, http.StatusBadRequest,
			"gender, style and language parameters are required")

		return
	}

	sampleURL, err := s.previews.Preview(r.Context(), core.VoiceStyles{
		Style:    style,
		Gender:   gender,
		Language: language,
	})
	if err != nil {
		s.log.Error("Voice preview failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to generate voice preview")

		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Success:   true,
		SampleURL: sampleURL,
	})
}

// handleAudio streams a stored audio object back to the caller. This is
// the resolver for the reference URLs recorded with every voice record.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		writeJSONError(w, http.StatusBadRequest, "invalid audio key")

		return
	}

	data, err := s.store.Download(r.Context(), key)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "audio not found")

		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}
