package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/store"
)

// emailRegex validates email addresses per RFC 5322 (simplified).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PresenceSource answers "who is online right now". Implemented by the hub.
type PresenceSource interface {
	OnlineUsers() []string
}

// Handler contains shared dependencies for all HTTP handlers. users and
// history may be nil when the corresponding collaborator is not configured.
type Handler struct {
	users    store.DataStore
	history  store.History
	presence PresenceSource
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(users store.DataStore, history store.History, presence PresenceSource) *Handler {
	return &Handler{users: users, history: history, presence: presence}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// isValidEmail validates email addresses using RFC 5322 pattern.
func isValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}
