package handlers

import (
	"net/http"
	"strings"

	"github.com/01moynul/culinamarket/internal/concierge"
	"github.com/gin-gonic/gin"
)

// maxHistory bounds how many earlier turns are forwarded to the model.
const maxHistory = 20

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string                     `json:"message" binding:"required"`
	History []concierge.HistoryMessage `json:"history"`
}

// Chat handles POST /v1/chat
// The concierge always answers; failures degrade to a catalog-only reply.
func (h *Handlers) Chat(c *gin.Context) {
	// 1. Parse Input
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	// 2. Keep only the latest turns
	history := input.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	// 3. Ask the concierge
	c.JSON(http.StatusOK, h.Concierge.Reply(c.Request.Context(), input.Message, history))
}
