package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// HistoryMessage is a recorded message returned by the history endpoint.
type HistoryMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	User           string `json:"user"`
	FileURL        string `json:"fileUrl,omitempty"`
	ReceivedAt     int64  `json:"received_at"`
}

// HistoryResponse is the conversation history response.
type HistoryResponse struct {
	ConversationID string           `json:"conversationId"`
	Messages       []HistoryMessage `json:"messages"`
	HasMore        bool             `json:"has_more"`
}

// OnlineResponse is the presence snapshot response.
type OnlineResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// UserResponse is the user lookup response.
type UserResponse struct {
	Email    string `json:"email"`
	Online   bool   `json:"online"`
	LastSeen string `json:"last_seen"`
}

// History fetches a conversation's recorded messages, newest first. Pass
// before as a Unix-millisecond bound to page further back, or 0 for the
// latest page.
func (c *Client) History(conversationID string, limit int, before int64) (*HistoryResponse, error) {
	path := "/conversation/" + url.PathEscape(conversationID) + "/messages"
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if before > 0 {
		q.Set("before", strconv.FormatInt(before, 10))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp HistoryResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Online fetches the current presence snapshot over REST.
func (c *Client) Online() (*OnlineResponse, error) {
	var resp OnlineResponse
	if err := c.get("/online", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// User fetches a user's last-seen record.
func (c *Client) User(email string) (*UserResponse, error) {
	var resp UserResponse
	if err := c.get("/user/"+url.PathEscape(email), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a GET against the REST surface.
func (c *Client) get(path string, out interface{}) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(body, &errResp)
		return fmt.Errorf("chat server error %d: %s", resp.StatusCode, errResp.Error)
	}

	return json.Unmarshal(body, out)
}
