package conversation

import (
	"testing"

	. "chatwire/pkg/chat"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(&User{}, &Chat{}, &ChatUser{}, &Message{})
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *User {
	user := &User{Username: username, Password: "hashed"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestChatService_AccessDirectChat(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	chat, err := service.AccessDirectChat(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("AccessDirectChat failed: %v", err)
	}
	if chat.IsGroup {
		t.Error("Direct chat should not be a group")
	}
	if len(chat.Members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(chat.Members))
	}

	// second access from either side returns the same chat
	again, err := service.AccessDirectChat(bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("Second AccessDirectChat failed: %v", err)
	}
	if again.ID != chat.ID {
		t.Errorf("Expected existing chat %s, got new chat %s", chat.ID, again.ID)
	}

	var count int64
	db.Model(&Chat{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 chat in database, got %d", count)
	}
}

func TestChatService_AccessDirectChat_Errors(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")

	tests := []struct {
		name        string
		userID      string
		otherUserID string
		errorMsg    string
	}{
		{
			name:        "empty other user",
			userID:      alice.ID,
			otherUserID: "",
			errorMsg:    "user id cannot be empty",
		},
		{
			name:        "chat with self",
			userID:      alice.ID,
			otherUserID: alice.ID,
			errorMsg:    "cannot open a chat with yourself",
		},
		{
			name:        "unknown user",
			userID:      alice.ID,
			otherUserID: "missing",
			errorMsg:    "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AccessDirectChat(tt.userID, tt.otherUserID)
			if err == nil {
				t.Error("Expected error but got none")
			} else if err.Error() != tt.errorMsg {
				t.Errorf("Expected error %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestChatService_CreateGroupChat(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	chat, err := service.CreateGroupChat(alice.ID, "team", []string{bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("CreateGroupChat failed: %v", err)
	}
	if !chat.IsGroup {
		t.Error("Expected a group chat")
	}
	if chat.Name != "team" {
		t.Errorf("Expected name 'team', got %q", chat.Name)
	}
	if chat.AdminID != alice.ID {
		t.Errorf("Expected admin %s, got %s", alice.ID, chat.AdminID)
	}
	if len(chat.Members) != 3 {
		t.Errorf("Expected 3 members, got %d", len(chat.Members))
	}
}

func TestChatService_CreateGroupChat_Errors(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	tests := []struct {
		name      string
		chatName  string
		memberIDs []string
		errorMsg  string
	}{
		{
			name:      "empty name",
			chatName:  "",
			memberIDs: []string{bob.ID, "carol"},
			errorMsg:  "group name cannot be empty",
		},
		{
			name:      "too few members",
			chatName:  "duo",
			memberIDs: []string{bob.ID},
			errorMsg:  "a group chat needs at least three members",
		},
		{
			name:      "duplicate members still too few",
			chatName:  "duo",
			memberIDs: []string{bob.ID, bob.ID, alice.ID},
			errorMsg:  "a group chat needs at least three members",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateGroupChat(alice.ID, tt.chatName, tt.memberIDs)
			if err == nil {
				t.Error("Expected error but got none")
			} else if err.Error() != tt.errorMsg {
				t.Errorf("Expected error %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestChatService_ListUserChats(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	dave := createTestUser(t, db, "dave")

	direct, err := service.AccessDirectChat(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("AccessDirectChat failed: %v", err)
	}
	if _, err := service.CreateGroupChat(bob.ID, "no-alice", []string{carol.ID, dave.ID}); err != nil {
		t.Fatalf("CreateGroupChat failed: %v", err)
	}

	chats, err := service.ListUserChats(alice.ID)
	if err != nil {
		t.Fatalf("ListUserChats failed: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("Expected 1 chat for alice, got %d", len(chats))
	}
	if chats[0].ID != direct.ID {
		t.Errorf("Expected chat %s, got %s", direct.ID, chats[0].ID)
	}
	if len(chats[0].Members) != 2 {
		t.Errorf("Expected members preloaded, got %d", len(chats[0].Members))
	}
}

func TestChatService_IsMember(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	chat, err := service.AccessDirectChat(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("AccessDirectChat failed: %v", err)
	}

	member, err := service.IsMember(alice.ID, chat.ID)
	if err != nil || !member {
		t.Errorf("Expected alice to be a member, got %v, %v", member, err)
	}
	member, err = service.IsMember(carol.ID, chat.ID)
	if err != nil || member {
		t.Errorf("Expected carol not to be a member, got %v, %v", member, err)
	}
}

func TestChatService_RenameGroup(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	group, err := service.CreateGroupChat(alice.ID, "old name", []string{bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("CreateGroupChat failed: %v", err)
	}

	renamed, err := service.RenameGroup(alice.ID, group.ID, "new name")
	if err != nil {
		t.Fatalf("RenameGroup failed: %v", err)
	}
	if renamed.Name != "new name" {
		t.Errorf("Expected 'new name', got %q", renamed.Name)
	}

	if _, err := service.RenameGroup(bob.ID, group.ID, "hijack"); err == nil {
		t.Error("Expected non-admin rename to fail")
	}

	direct, _ := service.AccessDirectChat(alice.ID, bob.ID)
	if _, err := service.RenameGroup(alice.ID, direct.ID, "nope"); err == nil {
		t.Error("Expected renaming a direct chat to fail")
	}
}

func TestChatService_AddMember(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	dave := createTestUser(t, db, "dave")

	group, err := service.CreateGroupChat(alice.ID, "team", []string{bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("CreateGroupChat failed: %v", err)
	}

	updated, err := service.AddMember(alice.ID, group.ID, dave.ID)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if len(updated.Members) != 4 {
		t.Errorf("Expected 4 members, got %d", len(updated.Members))
	}

	if _, err := service.AddMember(alice.ID, group.ID, dave.ID); err == nil {
		t.Error("Expected adding an existing member to fail")
	}
	if _, err := service.AddMember(bob.ID, group.ID, "someone"); err == nil {
		t.Error("Expected non-admin add to fail")
	}
}

func TestChatService_RemoveMember(t *testing.T) {
	db := setupTestDB(t)
	service := NewChatService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	group, err := service.CreateGroupChat(alice.ID, "team", []string{bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("CreateGroupChat failed: %v", err)
	}

	// admin removes a member
	updated, err := service.RemoveMember(alice.ID, group.ID, bob.ID)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if len(updated.Members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(updated.Members))
	}

	// a member leaves on their own
	updated, err = service.RemoveMember(carol.ID, group.ID, carol.ID)
	if err != nil {
		t.Fatalf("Self-removal failed: %v", err)
	}
	if len(updated.Members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(updated.Members))
	}

	// admin cannot be removed
	if _, err := service.RemoveMember(alice.ID, group.ID, alice.ID); err == nil {
		t.Error("Expected removing the admin to fail")
	}
}
