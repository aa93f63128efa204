package api

import (
	"net/http"

	cv "chatwire/internal/conversation"
	"chatwire/pkg/chat"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChatHandlers struct {
	service *cv.ChatService
}

func NewChatHandlers(db *gorm.DB) *ChatHandlers {
	return &ChatHandlers{
		service: cv.NewChatService(db),
	}
}

type AccessChatRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required"`
}

type RenameGroupRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

type GroupMemberRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

func chatJSON(c *chat.Chat) gin.H {
	members := make([]gin.H, 0, len(c.Members))
	for _, m := range c.Members {
		members = append(members, gin.H{
			"id":       m.User.ID,
			"username": m.User.Username,
		})
	}
	return gin.H{
		"id":        c.ID,
		"name":      c.Name,
		"is_group":  c.IsGroup,
		"admin_id":  c.AdminID,
		"members":   members,
		"updatedAt": c.UpdatedAt,
	}
}

// GetChatsHandler lists the caller's chats, most recently active first.
func (h *ChatHandlers) GetChatsHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	chats, err := h.service.ListUserChats(userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chats"})
		return
	}

	chatList := make([]gin.H, 0, len(chats))
	for i := range chats {
		chatList = append(chatList, chatJSON(&chats[i]))
	}

	c.JSON(http.StatusOK, gin.H{"chats": chatList})
}

// AccessChatHandler opens (or creates) the direct chat with another user.
func (h *ChatHandlers) AccessChatHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req AccessChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, err := h.service.AccessDirectChat(userID.(string), req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chatJSON(conversation)})
}

func (h *ChatHandlers) CreateGroupHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, err := h.service.CreateGroupChat(userID.(string), req.Name, req.Members)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chatJSON(conversation)})
}

func (h *ChatHandlers) RenameGroupHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, err := h.service.RenameGroup(userID.(string), req.ChatID, req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chatJSON(conversation)})
}

func (h *ChatHandlers) AddToGroupHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, err := h.service.AddMember(userID.(string), req.ChatID, req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chatJSON(conversation)})
}

func (h *ChatHandlers) RemoveFromGroupHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, err := h.service.RemoveMember(userID.(string), req.ChatID, req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chatJSON(conversation)})
}
