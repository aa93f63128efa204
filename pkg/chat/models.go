package chat

import (
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

type User struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chat is the durable conversation record. Direct chats have no name and
// exactly two members; group chats carry a name and an admin.
type Chat struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	IsGroup   bool   `gorm:"default:false"`
	AdminID   string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Members []ChatUser
}

type ChatUser struct {
	ID     uint   `gorm:"primaryKey"`
	ChatID string `gorm:"not null;uniqueIndex:idx_chat_user"`
	UserID string `gorm:"not null;uniqueIndex:idx_chat_user"`

	User User `gorm:"foreignKey:UserID"`
	Chat Chat `gorm:"foreignKey:ChatID"`
}

type Message struct {
	ID        string `gorm:"primaryKey"`
	ChatID    string `gorm:"not null;index"`
	SenderID  string `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time

	Sender User `gorm:"foreignKey:SenderID"`
}

// RelayEvent is the audit trail for protocol-level events on the relay:
// connections, joins, membership violations.
type RelayEvent struct {
	ID        uint   `gorm:"primaryKey"`
	Action    string `gorm:"not null;index"`
	UserID    string `gorm:"index"`
	ChatID    string
	ConnID    string
	Detail    string
	CreatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID, err = nanoid.New(8)
	}
	return
}

func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID, err = nanoid.New(6)
	}
	return
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID, err = nanoid.New(12)
	}
	return
}

// Wire converts a persisted message to its wire form for relay fan-out.
func (m *Message) Wire() WireMessage {
	return WireMessage{
		ID:         m.ID,
		ChatID:     m.ChatID,
		SenderID:   m.SenderID,
		SenderName: m.Sender.Username,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}
