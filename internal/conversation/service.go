package conversation

import (
	"errors"

	. "chatwire/pkg/chat"
	"gorm.io/gorm"
)

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// AccessDirectChat returns the direct chat between the two users, creating it
// on first access.
func (s *ChatService) AccessDirectChat(userID, otherUserID string) (*Chat, error) {
	if otherUserID == "" {
		return nil, errors.New("user id cannot be empty")
	}
	if userID == otherUserID {
		return nil, errors.New("cannot open a chat with yourself")
	}

	var other User
	if err := s.db.First(&other, "id = ?", otherUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}

	// An existing direct chat must contain both users.
	var chat Chat
	err := s.db.
		Joins("JOIN chat_users cu1 ON cu1.chat_id = chats.id AND cu1.user_id = ?", userID).
		Joins("JOIN chat_users cu2 ON cu2.chat_id = chats.id AND cu2.user_id = ?", otherUserID).
		Where("chats.is_group = ?", false).
		First(&chat).Error
	if err == nil {
		return s.GetChat(chat.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chat = Chat{IsGroup: false}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, err
	}

	members := []ChatUser{
		{ChatID: chat.ID, UserID: userID},
		{ChatID: chat.ID, UserID: otherUserID},
	}
	if err := s.db.Create(&members).Error; err != nil {
		return nil, err
	}

	return s.GetChat(chat.ID)
}

// CreateGroupChat creates a named group with the admin plus at least two
// other members.
func (s *ChatService) CreateGroupChat(adminID, name string, memberIDs []string) (*Chat, error) {
	if name == "" {
		return nil, errors.New("group name cannot be empty")
	}

	unique := map[string]bool{adminID: true}
	for _, id := range memberIDs {
		unique[id] = true
	}
	if len(unique) < 3 {
		return nil, errors.New("a group chat needs at least three members")
	}

	chat := Chat{Name: name, IsGroup: true, AdminID: adminID}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, err
	}

	members := make([]ChatUser, 0, len(unique))
	for id := range unique {
		members = append(members, ChatUser{ChatID: chat.ID, UserID: id})
	}
	if err := s.db.Create(&members).Error; err != nil {
		return nil, err
	}

	return s.GetChat(chat.ID)
}

// ListUserChats returns the caller's chats, most recently updated first.
func (s *ChatService) ListUserChats(userID string) ([]Chat, error) {
	var chats []Chat
	err := s.db.
		Joins("JOIN chat_users ON chats.id = chat_users.chat_id").
		Where("chat_users.user_id = ?", userID).
		Preload("Members.User").
		Order("chats.updated_at DESC").
		Find(&chats).Error
	return chats, err
}

func (s *ChatService) GetChat(chatID string) (*Chat, error) {
	var chat Chat
	err := s.db.Preload("Members.User").First(&chat, "id = ?", chatID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *ChatService) IsMember(userID, chatID string) (bool, error) {
	var member ChatUser
	err := s.db.Where("user_id = ? AND chat_id = ?", userID, chatID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RenameGroup renames a group chat. Only the admin may rename.
func (s *ChatService) RenameGroup(adminID, chatID, name string) (*Chat, error) {
	if name == "" {
		return nil, errors.New("group name cannot be empty")
	}

	chat, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, errors.New("not a group chat")
	}
	if chat.AdminID != adminID {
		return nil, errors.New("only the group admin can rename the group")
	}

	if err := s.db.Model(chat).Update("name", name).Error; err != nil {
		return nil, err
	}
	return s.GetChat(chatID)
}

// AddMember adds a user to a group chat. Only the admin may add.
func (s *ChatService) AddMember(adminID, chatID, userID string) (*Chat, error) {
	chat, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, errors.New("not a group chat")
	}
	if chat.AdminID != adminID {
		return nil, errors.New("only the group admin can add members")
	}

	member, err := s.IsMember(userID, chatID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, errors.New("user already in chat")
	}

	if err := s.db.Create(&ChatUser{ChatID: chatID, UserID: userID}).Error; err != nil {
		return nil, err
	}
	return s.GetChat(chatID)
}

// RemoveMember removes a user from a group chat. The admin may remove anyone
// but themselves; a member may remove themselves (leave).
func (s *ChatService) RemoveMember(actorID, chatID, userID string) (*Chat, error) {
	chat, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, errors.New("not a group chat")
	}
	if actorID != userID && chat.AdminID != actorID {
		return nil, errors.New("only the group admin can remove members")
	}
	if userID == chat.AdminID {
		return nil, errors.New("group admin cannot be removed")
	}

	err = s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&ChatUser{}).Error
	if err != nil {
		return nil, err
	}
	return s.GetChat(chatID)
}
