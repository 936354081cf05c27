package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type ChatHandler struct {
	chat *store.ChatStore
}

func NewChatHandler(chat *store.ChatStore) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// POST /chat/messages
func (h *ChatHandler) Send(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.chat.Send(c.Request.Context(), req.Message)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reply": reply})
}

// GET /chat/suggestions
func (h *ChatHandler) Suggestions(c *gin.Context) {
	list, err := h.chat.FetchSuggestions(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": list})
}

// POST /chat/toggle
func (h *ChatHandler) Toggle(c *gin.Context) {
	response.RespondOK(c, gin.H{"is_open": h.chat.Toggle()})
}

// GET /chat/analyze
func (h *ChatHandler) Analyze(c *gin.Context) {
	a, err := h.chat.AnalyzeBehavior(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"analysis": a})
}
