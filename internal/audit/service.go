package audit

import (
	"time"

	. "chatwire/pkg/chat"
	"gorm.io/gorm"
)

// Service records protocol-level relay events: connections coming and going,
// room joins, and rejected sends. It is a trail for operators, not a message
// store.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

const (
	ActionConnect    = "WS_CONNECT"
	ActionSetup      = "WS_SETUP"
	ActionDisconnect = "WS_DISCONNECT"
	ActionJoinRoom   = "JOIN_ROOM"
	ActionLeaveRoom  = "LEAVE_ROOM"
	ActionViolation  = "MEMBERSHIP_VIOLATION"
)

func (s *Service) Log(action, userID, connID, chatID, detail string) error {
	event := RelayEvent{
		Action:    action,
		UserID:    userID,
		ConnID:    connID,
		ChatID:    chatID,
		Detail:    detail,
		CreatedAt: time.Now(),
	}

	return s.db.Create(&event).Error
}

// Recent returns the latest events, newest first.
func (s *Service) Recent(limit int) ([]RelayEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []RelayEvent
	err := s.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// RecentForChat returns the latest events for one room, newest first.
func (s *Service) RecentForChat(chatID string, limit int) ([]RelayEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []RelayEvent
	err := s.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
