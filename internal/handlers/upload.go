package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/metrics"
)

// maxUploadSize caps attachment uploads at 10 MiB.
const maxUploadSize = 10 << 20

// UploadHandler stores multipart file uploads and serves them back. The URL
// it returns travels through the relay untouched as the message's fileUrl.
type UploadHandler struct {
	dir string
}

// NewUploadHandler creates an upload handler rooted at dir, creating it if
// needed.
func NewUploadHandler(dir string) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &UploadHandler{dir: dir}, nil
}

// Dir returns the directory uploads are stored in.
func (u *UploadHandler) Dir() string {
	return u.dir
}

// UploadResponse represents the upload response.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles a multipart upload under the "file" field and responds with
// the URL the stored file is served at.
func (h *Handler) Upload(u *UploadHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			h.Error(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		defer file.Close()

		name := uuid.NewString() + sanitizeExt(header.Filename)
		dst, err := os.Create(filepath.Join(u.dir, name))
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to store file")
			return
		}
		defer dst.Close()

		if _, err := io.Copy(dst, file); err != nil {
			os.Remove(dst.Name())
			h.Error(w, http.StatusInternalServerError, "failed to store file")
			return
		}

		metrics.UploadsTotal.Inc()
		h.JSON(w, http.StatusOK, UploadResponse{URL: "/files/" + name})
	}
}

// sanitizeExt keeps a short, path-safe extension from the original filename.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
