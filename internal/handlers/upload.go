package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/fleetops/apiserver/internal/storage"
)

const (
	maxMultipartMemory = 8 << 20
	maxUploadBytes     = 5 << 20

	formFieldFile = "file"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadHandler stores receipt images in object storage.
type UploadHandler struct {
	storage *storage.Storage
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(store *storage.Storage) *UploadHandler {
	return &UploadHandler{storage: store}
}

// UploadResponse carries the public URL of a stored object.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload accepts a single multipart image and returns its URL. Content type is
// sniffed from the payload rather than trusted from the part header.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, codeInternal, "object storage is not configured")
		return
	}

	data, filename, err := readUploadedImage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		writeError(w, http.StatusBadRequest, codeValidation, "only jpeg, png and webp images are accepted")
		return
	}
	if e := strings.ToLower(path.Ext(filename)); e == ".jpeg" {
		ext = ".jpg"
	}

	key := fmt.Sprintf("receipts/%d-%d%s", scope.UserID, time.Now().UnixNano(), ext)
	if err := h.storage.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to store upload")
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{URL: h.storage.URL(key)})
}

func readUploadedImage(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, "", errors.New("invalid multipart form")
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		return nil, "", errors.New("file is required")
	}

	data, err := readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds %d bytes", limit)
	}
	return data, nil
}
