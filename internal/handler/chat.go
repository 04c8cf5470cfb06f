package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperbase/paperbase/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`

	// Absent means an ungrounded answer; present but empty means grounded
	// with no documents selected.
	AllowedSourceIDs []uuid.UUID `json:"allowed_source_ids"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	result, err := h.chat.Answer(c.Request.Context(), owner, req.Question, req.AllowedSourceIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
