package slackhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler implements the Slack events endpoint. Slack's URL verification
// handshake requires the raw challenge echoed back as plain text, so this
// endpoint deliberately bypasses the JSON envelope.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/api/slack/events", h.handleEvent)
}

type eventPayload struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "endpoint": "slack events"})
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if payload.Type == "url_verification" {
		if payload.Challenge == "" {
			http.Error(w, "challenge required", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, payload.Challenge)
		return
	}

	// Event deliveries are acknowledged and otherwise ignored; the change
	// feed is the source of truth for state transitions.
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}
