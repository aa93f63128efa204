package message

import (
	"errors"

	. "chatwire/pkg/chat"
	"gorm.io/gorm"
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// GetChatMessages returns message history for a chat the user belongs to,
// oldest first.
func (s *MessageService) GetChatMessages(userID, chatID string, limit, offset int, beforeID string) ([]Message, int64, error) {
	var chat Chat
	if err := s.db.First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errors.New("chat not found")
		}
		return nil, 0, err
	}

	var member ChatUser
	if err := s.db.Where("user_id = ? AND chat_id = ?", userID, chatID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, errors.New("you are not a member of this chat")
		}
		return nil, 0, err
	}

	query := s.db.Preload("Sender").Where("chat_id = ?", chatID)

	if beforeID != "" {
		var beforeMessage Message
		if err := s.db.First(&beforeMessage, "id = ?", beforeID).Error; err == nil {
			query = query.Where("created_at < ?", beforeMessage.CreatedAt)
		}
	}

	var total int64
	if err := query.Model(&Message{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []Message
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	// Most recent page, presented in chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, total, nil
}

// CreateMessage persists a message for a chat the sender belongs to and bumps
// the chat's updated_at so chat lists sort by recency.
func (s *MessageService) CreateMessage(senderID, chatID, content string) (*Message, error) {
	if content == "" {
		return nil, errors.New("message content cannot be empty")
	}

	var member ChatUser
	if err := s.db.Where("user_id = ? AND chat_id = ?", senderID, chatID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("you are not a member of this chat")
		}
		return nil, err
	}

	message := Message{
		Content:  content,
		SenderID: senderID,
		ChatID:   chatID,
	}

	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&Chat{}).Where("id = ?", chatID).
		Update("updated_at", message.CreatedAt).Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("Sender").First(&message, "id = ?", message.ID).Error; err != nil {
		return nil, err
	}

	return &message, nil
}
