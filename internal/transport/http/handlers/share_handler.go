package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/service"
	"github.com/mklancir/orbit/internal/transport/http/middleware"
	"github.com/mklancir/orbit/pkg/validator"
)

type ShareHandler struct {
	shares *service.ShareService
	log    *zap.SugaredLogger
}

func NewShareHandler(shares *service.ShareService, log *zap.SugaredLogger) *ShareHandler {
	return &ShareHandler{shares: shares, log: log}
}

func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input struct {
		ContentKind string    `json:"content_kind"`
		ContentID   uuid.UUID `json:"content_id"`
		Caption     *string   `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.ContentID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "MISSING_CONTENT_ID", "content_id is required")
		return
	}
	if errs := validator.ValidateCaption(input.Caption); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.shares.ShareContent(r.Context(), convID, userID, input.ContentKind, input.ContentID, input.Caption)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *ShareHandler) StoryReaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	storyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid story ID")
		return
	}

	var input struct {
		OwnerID uuid.UUID `json:"owner_id"`
		Emoji   string    `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if strings.TrimSpace(input.Emoji) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_EMOJI", "emoji is required")
		return
	}

	msg, err := h.shares.SendStoryReaction(r.Context(), userID, input.OwnerID, storyID, input.Emoji)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *ShareHandler) StoryReply(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	storyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid story ID")
		return
	}

	var input struct {
		OwnerID uuid.UUID `json:"owner_id"`
		Text    string    `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.ValidateMessageText(input.Text); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.shares.SendStoryReply(r.Context(), userID, input.OwnerID, storyID, input.Text)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
