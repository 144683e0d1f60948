package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/coaching-plans-api/internal/dto"
	apierrors "github.com/yukikurage/coaching-plans-api/internal/errors"
	"github.com/yukikurage/coaching-plans-api/internal/middleware"
	"github.com/yukikurage/coaching-plans-api/internal/services"
)

// ChatHandler answers chat messages. chatService is nil when no language
// model is configured.
type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

type chatRequest struct {
	Message string `json:"message" binding:"required,notblank"`
}

// SendMessage handles POST /api/chat.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	if h.chatService == nil {
		apierrors.ServiceUnavailable(c, "AI assistant is not configured")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Message is required")
		return
	}

	result, err := h.chatService.HandleMessage(c.Request.Context(), middleware.OwnerID(c), req.Message)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			apierrors.BadRequest(c, "Message is required")
			return
		}
		apierrors.InternalError(c, "Failed to process message")
		return
	}

	middleware.RecordChatReply(string(result.Kind))
	if result.Saved {
		middleware.RecordPlanCreated("chat")
	}

	c.JSON(http.StatusOK, dto.ToChatResponse(result))
}
