package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/storage"
	"github.com/mklancir/orbit/internal/transport/http/middleware"
)

const (
	mediaBucket   = "message-media"
	maxUploadSize = 25 << 20 // 25 MiB
)

type MediaHandler struct {
	blobs storage.BlobStore
	log   *zap.SugaredLogger
}

func NewMediaHandler(blobs storage.BlobStore, log *zap.SugaredLogger) *MediaHandler {
	return &MediaHandler{blobs: blobs, log: log}
}

// Upload accepts one multipart file and returns the URL to reference in a
// media message.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "A file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Failed to read upload")
		return
	}

	path := fmt.Sprintf("%s/%s%s", userID, uuid.New(), filepath.Ext(header.Filename))
	stored, err := h.blobs.Upload(r.Context(), mediaBucket, path, data)
	if err != nil {
		h.log.Errorw("failed to store upload", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store upload")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"path": stored,
		"url":  h.blobs.PublicURL(mediaBucket, stored),
	})
}
