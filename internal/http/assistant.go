package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AssistantRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id"`
}

type AssistantResponse struct {
	Response string `json:"response"`
}

type AssistantController struct {
	assistant Assistant
}

func NewAssistantController(assistant Assistant) *AssistantController {
	return &AssistantController{assistant: assistant}
}

// Webhook answers a question with the text-to-SQL pipeline.
// POST /ai-assistant/webhook
func (ac *AssistantController) Webhook(c *gin.Context) {
	var req AssistantRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := ac.assistant.Ask(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AssistantResponse{Response: answer.Response})
}

// Streaming runs the tool-calling loop and relays each chunk as a
// server-sent event until the loop finishes or the client goes away.
// POST /ai-assistant/streaming
func (ac *AssistantController) Streaming(c *gin.Context) {
	var req AssistantRequest
	if !bindJSON(c, &req) {
		return
	}

	conversationID, chunks, err := ac.assistant.Stream(c.Request.Context(), req.ConversationID, req.Question)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Conversation-ID", conversationID)

	c.Stream(func(io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}
		c.SSEvent("message", chunk)
		return true
	})
}
