package handlers

import "net/http"

// OnlineResponse represents the online users snapshot response.
type OnlineResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// OnlineUsers handles the REST view of the presence registry. The same
// snapshot is pushed to connected clients as an online-users frame; this
// endpoint exists for pollers and dashboards.
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	users := h.presence.OnlineUsers()
	if users == nil {
		users = []string{}
	}
	h.JSON(w, http.StatusOK, OnlineResponse{Users: users, Count: len(users)})
}
