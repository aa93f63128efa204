package api

import (
	"net/http"
	"strconv"

	"chatwire/internal/audit"
	"chatwire/pkg/chat"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditHandlers struct {
	service *audit.Service
}

func NewAuditHandlers(db *gorm.DB) *AuditHandlers {
	return &AuditHandlers{
		service: audit.NewService(db),
	}
}

// GetRelayEventsHandler lists recent relay protocol events, optionally
// filtered to one chat.
// GET /api/relay/events?chat_id=abc123&limit=50
func (h *AuditHandlers) GetRelayEventsHandler(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 50
	}

	chatID := c.Query("chat_id")

	var records []chat.RelayEvent
	if chatID != "" {
		records, err = h.service.RecentForChat(chatID, limit)
	} else {
		records, err = h.service.Recent(limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch relay events"})
		return
	}

	events := make([]gin.H, 0, len(records))
	for _, r := range records {
		events = append(events, gin.H{
			"action":     r.Action,
			"user_id":    r.UserID,
			"chat_id":    r.ChatID,
			"conn_id":    r.ConnID,
			"detail":     r.Detail,
			"created_at": r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
