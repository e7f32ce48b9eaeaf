package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/models"
)

type fakePresence struct {
	users []string
}

func (f *fakePresence) OnlineUsers() []string { return f.users }

type fakeDirectory struct {
	users   map[string]*models.User
	pingErr error
}

func (f *fakeDirectory) Close() {}

func (f *fakeDirectory) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeDirectory) TouchLastSeen(ctx context.Context, email string) error {
	return nil
}
func (f *fakeDirectory) GetUser(ctx context.Context, email string) (*models.User, error) {
	return f.users[email], nil
}
func (f *fakeDirectory) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

type fakeHistory struct {
	messages []models.StoredMessage
}

func (f *fakeHistory) Ping(ctx context.Context) error { return nil }

func (f *fakeHistory) AddMessage(ctx context.Context, msg *models.StoredMessage) error {
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeHistory) ConversationMessages(ctx context.Context, conversationID string, limit int, before int64) ([]models.StoredMessage, error) {
	var out []models.StoredMessage
	for _, msg := range f.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if before > 0 && msg.ReceivedAt >= before {
			continue
		}
		out = append(out, msg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestRouter(h *Handler, upload *UploadHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/online", h.OnlineUsers)
	r.Get("/user/{email}", h.GetUser)
	r.Get("/conversation/{id}/messages", h.ConversationMessages)
	if upload != nil {
		r.Post("/upload", h.Upload(upload))
	}
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v (body %s)", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func TestHealthHealthy(t *testing.T) {
	h := NewHandler(&fakeDirectory{}, &fakeHistory{}, &fakePresence{users: []string{"alice@example.com"}})
	r := newTestRouter(h, nil)

	var resp HealthResponse
	rec := doRequest(t, r, "GET", "/health", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Status != "healthy" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Online != 1 {
		t.Fatalf("online = %d", resp.Online)
	}
	if resp.Checks["users"].Status != "pass" || resp.Checks["history"].Status != "pass" {
		t.Fatalf("checks: %+v", resp.Checks)
	}
}

func TestHealthDegradedWithoutStores(t *testing.T) {
	h := NewHandler(nil, nil, &fakePresence{})
	r := newTestRouter(h, nil)

	var resp HealthResponse
	rec := doRequest(t, r, "GET", "/health", &resp)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Status != "degraded" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Checks["users"].Message != "not configured" {
		t.Fatalf("users check: %+v", resp.Checks["users"])
	}
}

func TestOnlineUsers(t *testing.T) {
	h := NewHandler(nil, nil, &fakePresence{users: []string{"alice@example.com", "bob@example.com"}})
	r := newTestRouter(h, nil)

	var resp OnlineResponse
	rec := doRequest(t, r, "GET", "/online", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Count != 2 || len(resp.Users) != 2 {
		t.Fatalf("response: %+v", resp)
	}
}

func TestOnlineUsersEmpty(t *testing.T) {
	h := NewHandler(nil, nil, &fakePresence{})
	r := newTestRouter(h, nil)

	rec := doRequest(t, r, "GET", "/online", nil)
	// Empty presence must serialize as an array, not null.
	if !strings.Contains(rec.Body.String(), `"users":[]`) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestGetUserInvalidEmail(t *testing.T) {
	h := NewHandler(&fakeDirectory{}, nil, &fakePresence{})
	r := newTestRouter(h, nil)

	rec := doRequest(t, r, "GET", "/user/not-an-email", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	h := NewHandler(&fakeDirectory{}, nil, &fakePresence{})
	r := newTestRouter(h, nil)

	rec := doRequest(t, r, "GET", "/user/ghost@example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetUserLastSeen(t *testing.T) {
	lastSeen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{users: map[string]*models.User{
		"alice@example.com": {Email: "alice@example.com", LastSeen: lastSeen},
	}}
	h := NewHandler(dir, nil, &fakePresence{})
	r := newTestRouter(h, nil)

	var resp UserResponse
	rec := doRequest(t, r, "GET", "/user/alice@example.com", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Online {
		t.Fatal("alice should be offline")
	}
	if resp.LastSeen != "2024-06-01T12:00:00Z" {
		t.Fatalf("last_seen = %q", resp.LastSeen)
	}
}

func TestGetUserOnlineWithoutDirectory(t *testing.T) {
	h := NewHandler(nil, nil, &fakePresence{users: []string{"alice@example.com"}})
	r := newTestRouter(h, nil)

	var resp UserResponse
	rec := doRequest(t, r, "GET", "/user/alice@example.com", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !resp.Online {
		t.Fatal("alice should be online")
	}
}

func TestHistoryNotConfigured(t *testing.T) {
	h := NewHandler(nil, nil, &fakePresence{})
	r := newTestRouter(h, nil)

	rec := doRequest(t, r, "GET", "/conversation/conv1/messages", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHistoryPagination(t *testing.T) {
	history := &fakeHistory{}
	for i := 0; i < 5; i++ {
		history.messages = append(history.messages, models.StoredMessage{
			ID:             string(rune('a' + i)),
			ConversationID: "conv1",
			Text:           "msg",
			User:           "alice@example.com",
			ReceivedAt:     int64(1000 + i),
		})
	}
	h := NewHandler(nil, history, &fakePresence{})
	r := newTestRouter(h, nil)

	var resp HistoryResponse
	rec := doRequest(t, r, "GET", "/conversation/conv1/messages?limit=3", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Messages) != 3 {
		t.Fatalf("got %d messages", len(resp.Messages))
	}
	if !resp.HasMore {
		t.Fatal("expected has_more")
	}

	rec = doRequest(t, r, "GET", "/conversation/conv1/messages", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Messages) != 5 || resp.HasMore {
		t.Fatalf("got %d messages, has_more=%v", len(resp.Messages), resp.HasMore)
	}
}

func TestHistoryEmptyConversation(t *testing.T) {
	h := NewHandler(nil, &fakeHistory{}, &fakePresence{})
	r := newTestRouter(h, nil)

	var resp HistoryResponse
	rec := doRequest(t, r, "GET", "/conversation/empty/messages", &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Messages) != 0 || resp.HasMore {
		t.Fatalf("response: %+v", resp)
	}
}

func TestUpload(t *testing.T) {
	upload, err := NewUploadHandler(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(nil, nil, &fakePresence{})
	r := newTestRouter(h, upload)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo.PNG")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake image bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.URL, "/files/") || !strings.HasSuffix(resp.URL, ".png") {
		t.Fatalf("url = %q", resp.URL)
	}

	stored := filepath.Join(upload.Dir(), strings.TrimPrefix(resp.URL, "/files/"))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Fatalf("stored content: %q", data)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	upload, err := NewUploadHandler(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(nil, nil, &fakePresence{})
	r := newTestRouter(h, upload)

	req := httptest.NewRequest("POST", "/upload", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
