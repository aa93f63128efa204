package api

import (
	"net/http"

	u "chatwire/internal/user"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandlers struct {
	service *u.UserService
}

func NewUserHandlers(db *gorm.DB) *UserHandlers {
	return &UserHandlers{
		service: u.NewUserService(db),
	}
}

// SearchUsersHandler finds users to start a chat with.
// GET /api/user?search=jane
func (h *UserHandlers) SearchUsersHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := c.Query("search")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search query is required"})
		return
	}

	users, total, err := h.service.SearchUsers(userID.(string), query, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	userList := make([]gin.H, 0, len(users))
	for _, user := range users {
		userList = append(userList, gin.H{
			"id":       user.ID,
			"username": user.Username,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": userList, "total": total})
}
