package api

import (
	"net/http"
	"strconv"

	m "chatwire/internal/message"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MessageHandlers struct {
	service *m.MessageService
}

func NewMessageHandlers(db *gorm.DB) *MessageHandlers {
	return &MessageHandlers{
		service: m.NewMessageService(db),
	}
}

type MessageInfo struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	CreatedAt string `json:"createdAt"`
	Sender    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"sender"`
}

type MessagesResponse struct {
	Messages []MessageInfo `json:"messages"`
	HasMore  bool          `json:"has_more,omitempty"`
	Total    int64         `json:"total,omitempty"`
}

type SendMessageRequest struct {
	ChatID  string `json:"chatId" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// GetChatMessagesHandler retrieves message history for a chat
// @Summary Get chat message history
// @Description Get paginated message history for a chat (members only)
// @Tags Messages
// @Accept json
// @Produce json
// @Security Bearer
// @Param chatId path string true "Chat ID"
// @Param limit query int false "Number of messages to retrieve (default: 50, max: 100)"
// @Param offset query int false "Number of messages to skip (default: 0)"
// @Param before query string false "Get messages before this message ID"
// @Success 200 {object} MessagesResponse "Messages retrieved successfully"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 403 {object} ErrorResponse "You are not a member of this chat"
// @Failure 404 {object} ErrorResponse "Chat not found"
// @Router /api/message/{chatId} [get]
func (h *MessageHandlers) GetChatMessagesHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	chatID := c.Param("chatId")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID is required"})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		offset = 0
	}

	beforeID := c.Query("before")

	messages, total, err := h.service.GetChatMessages(userID.(string), chatID, limit, offset, beforeID)
	if err != nil {
		if err.Error() == "chat not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		if err.Error() == "you are not a member of this chat" {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this chat"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	var messageResponses []MessageInfo
	for _, msg := range messages {
		msgResponse := MessageInfo{
			ID:        msg.ID,
			Content:   msg.Content,
			ChatID:    msg.ChatID,
			SenderID:  msg.SenderID,
			CreatedAt: msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		msgResponse.Sender.ID = msg.Sender.ID
		msgResponse.Sender.Username = msg.Sender.Username
		messageResponses = append(messageResponses, msgResponse)
	}

	response := MessagesResponse{
		Messages: messageResponses,
		Total:    total,
		HasMore:  int64(offset+limit) < total,
	}

	c.JSON(http.StatusOK, response)
}

// SendMessageHandler persists a new message. The live fan-out happens over
// the relay once the client emits the message it got back from here.
// @Summary Send a message
// @Description Persist a message in a chat the caller belongs to
// @Tags Messages
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} MessageInfo "Message created"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "User not authenticated"
// @Failure 403 {object} ErrorResponse "You are not a member of this chat"
// @Router /api/message [post]
func (h *MessageHandlers) SendMessageHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.CreateMessage(userID.(string), req.ChatID, req.Content)
	if err != nil {
		if err.Error() == "you are not a member of this chat" {
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this chat"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response := MessageInfo{
		ID:        msg.ID,
		Content:   msg.Content,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	response.Sender.ID = msg.Sender.ID
	response.Sender.Username = msg.Sender.Username

	c.JSON(http.StatusCreated, response)
}
