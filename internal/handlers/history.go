package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// HistoryMessage represents a recorded message in API responses.
type HistoryMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	User           string `json:"user"`
	FileURL        string `json:"fileUrl,omitempty"`
	ReceivedAt     int64  `json:"received_at"`
}

// HistoryResponse represents the conversation history response.
type HistoryResponse struct {
	ConversationID string           `json:"conversationId"`
	Messages       []HistoryMessage `json:"messages"`
	HasMore        bool             `json:"has_more"`
}

// ConversationMessages handles fetching the recorded message history of a
// conversation. Newest first; paginate with ?before=<unix ms>.
func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.Error(w, http.StatusNotFound, "history store not configured")
		return
	}

	conversationID := chi.URLParam(r, "id")
	if conversationID == "" {
		h.Error(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 200 {
		limit = 200
	}

	var before int64
	if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
		if b, err := strconv.ParseInt(beforeStr, 10, 64); err == nil {
			before = b
		}
	}

	// Fetch one extra for the has_more check.
	messages, err := h.history.ConversationMessages(r.Context(), conversationID, limit+1, before)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	out := make([]HistoryMessage, len(messages))
	for i, msg := range messages {
		out[i] = HistoryMessage{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			Text:           msg.Text,
			User:           msg.User,
			FileURL:        msg.FileURL,
			ReceivedAt:     msg.ReceivedAt,
		}
	}

	h.JSON(w, http.StatusOK, HistoryResponse{
		ConversationID: conversationID,
		Messages:       out,
		HasMore:        hasMore,
	})
}
