package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/connecthub/roadmap-backend/internal/pkg/errors"
	"github.com/connecthub/roadmap-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

// POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	reply, conversationID, err := h.chat.Send(c.Request.Context(), req.ConversationID, req.Message)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "chat_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"role":            reply.Role,
		"content":         reply.Content,
		"conversation_id": conversationID,
	})
}

// GET /messages/:id
func (h *ChatHandler) Messages(c *gin.Context) {
	conv, err := h.chat.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "conversation_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "conversation_lookup_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"messages":        conv.Messages,
		"conversation_id": conv.ID,
	})
}

// POST /clear
func (h *ChatHandler) Clear(c *gin.Context) {
	conv, err := h.chat.Clear(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "clear_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"conversation_id": conv.ID,
		"message":         "Chat cleared successfully",
	})
}
