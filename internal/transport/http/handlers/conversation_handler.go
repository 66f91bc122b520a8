package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/service"
	"github.com/mklancir/orbit/internal/transport/http/middleware"
	"github.com/mklancir/orbit/pkg/validator"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	typing        *service.TypingService
	log           *zap.SugaredLogger
}

func NewConversationHandler(conversations *service.ConversationService, typing *service.TypingService, log *zap.SugaredLogger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, typing: typing, log: log}
}

// Direct finds or creates the single direct conversation with another user.
func (h *ConversationHandler) Direct(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id is required")
		return
	}

	conv, err := h.conversations.FindOrCreateDirect(r.Context(), userID, input.UserID)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		Name           string      `json:"name"`
		ParticipantIDs []uuid.UUID `json:"participant_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.ValidateGroupName(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	conv, err := h.conversations.CreateGroup(r.Context(), userID, input.ParticipantIDs, input.Name)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.conversations.List(r.Context(), userID)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	conv, err := h.conversations.GetForUser(r.Context(), convID, userID)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) SetMuted(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input struct {
		Muted bool `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.conversations.SetMuted(r.Context(), convID, userID, input.Muted); err != nil {
		writeAppError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) SetTyping(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input struct {
		Typing bool `json:"typing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.typing.Set(r.Context(), convID, userID, input.Typing); err != nil {
		writeAppError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) ActiveTyping(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	if _, err := h.conversations.GetForUser(r.Context(), convID, userID); err != nil {
		writeAppError(w, h.log, err)
		return
	}

	signals, err := h.typing.Active(r.Context(), convID)
	if err != nil {
		writeAppError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, signals)
}
