package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/syncsyntax/messaging/internal/service"
	"github.com/syncsyntax/messaging/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	log           *zap.Logger
}

func NewConversationHandler(conversations *service.ConversationService, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, log: log}
}

// List handles GET /api/v1/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.conversations.List(r.Context(), userID)
	if err != nil {
		h.log.Error("list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

// OpenThread handles GET /api/v1/conversations/{userId}. Opening the
// thread marks the counterpart's unread messages read.
func (h *ConversationHandler) OpenThread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	counterpartID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	messages, err := h.conversations.OpenThread(r.Context(), userID, counterpartID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		default:
			h.log.Error("open thread", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
