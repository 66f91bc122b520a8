package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/domain"
	"github.com/mklancir/orbit/internal/service"
	"github.com/mklancir/orbit/internal/transport/http/middleware"
	"github.com/mklancir/orbit/pkg/validator"
)

type MessageHandler struct {
	messages *service.MessageService
	log      *zap.SugaredLogger
}

func NewMessageHandler(messages *service.MessageService, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input struct {
		domain.MessagePayload
		ReplyToID *uuid.UUID `json:"reply_to_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.Text != nil {
		if errs := validator.ValidateMessageText(*input.Text); errs.HasErrors() {
			writeValidationErrors(w, errs)
			return
		}
	}
	if len(input.MediaURLs) > 0 {
		if errs := validator.ValidateMediaURLs(input.MediaURLs); errs.HasErrors() {
			writeValidationErrors(w, errs)
			return
		}
	}

	msg, err := h.messages.Append(r.Context(), convID, userID, input.MessagePayload, input.ReplyToID)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// List pages messages oldest-first. ?after=<message-id> restarts the cursor,
// ?limit caps the page size.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var after *uuid.UUID
	if raw := r.URL.Query().Get("after"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid after cursor")
			return
		}
		after = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	resp, err := h.messages.List(r.Context(), convID, userID, after, limit)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.messages.MarkRead(r.Context(), msgID, userID); err != nil {
		writeAppError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.ValidateMessageText(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messages.Edit(r.Context(), msgID, userID, input.Content)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.messages.SoftDelete(r.Context(), msgID, userID); err != nil {
		writeAppError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
