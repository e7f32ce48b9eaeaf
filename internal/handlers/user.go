package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// UserResponse represents the user lookup response.
type UserResponse struct {
	Email    string `json:"email"`
	Online   bool   `json:"online"`
	LastSeen string `json:"last_seen"`
}

// GetUser handles user last-seen lookup.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if !isValidEmail(email) {
		h.Error(w, http.StatusBadRequest, "invalid email address")
		return
	}

	online := false
	for _, u := range h.presence.OnlineUsers() {
		if u == email {
			online = true
			break
		}
	}

	if h.users == nil {
		if !online {
			h.Error(w, http.StatusNotFound, "user directory not configured")
			return
		}
		h.JSON(w, http.StatusOK, UserResponse{Email: email, Online: true})
		return
	}

	user, err := h.users.GetUser(r.Context(), email)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if user == nil && !online {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	resp := UserResponse{Email: email, Online: online}
	if user != nil {
		resp.LastSeen = user.LastSeen.UTC().Format(time.RFC3339)
	}
	h.JSON(w, http.StatusOK, resp)
}
