package user

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

	err = db.AutoMigrate(&User{})
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func seedUsers(t *testing.T, db *gorm.DB, usernames ...string) map[string]string {
	ids := make(map[string]string, len(usernames))
	for _, username := range usernames {
		user := User{Username: username, Password: "hashed"}
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("Failed to create user %s: %v", username, err)
		}
		ids[username] = user.ID
	}
	return ids
}

func TestUserService_GetUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)
	ids := seedUsers(t, db, "alice")

	user, err := service.GetUser(ids["alice"])
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Expected username 'alice', got %q", user.Username)
	}

	if _, err := service.GetUser("missing"); err == nil || err.Error() != "user not found" {
		t.Errorf("Expected 'user not found', got %v", err)
	}
}

func TestUserService_SearchUsers(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)
	ids := seedUsers(t, db, "alice", "alicia", "bob", "malice")

	tests := []struct {
		name          string
		query         string
		expectedNames []string
		expectedTotal int64
	}{
		{
			name:          "substring match",
			query:         "alic",
			expectedNames: []string{"alicia", "malice"},
			expectedTotal: 2,
		},
		{
			name:          "case insensitive",
			query:         "ALIC",
			expectedNames: []string{"alicia", "malice"},
			expectedTotal: 2,
		},
		{
			name:          "no match",
			query:         "zzz",
			expectedNames: []string{},
			expectedTotal: 0,
		},
		{
			name:          "empty query matches everyone else",
			query:         "",
			expectedNames: []string{"alicia", "bob", "malice"},
			expectedTotal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// alice searches; she must never appear in her own results
			users, total, err := service.SearchUsers(ids["alice"], tt.query, 20)
			if err != nil {
				t.Fatalf("SearchUsers failed: %v", err)
			}
			if total != tt.expectedTotal {
				t.Errorf("Expected total %d, got %d", tt.expectedTotal, total)
			}
			if len(users) != len(tt.expectedNames) {
				t.Fatalf("Expected %d users, got %d", len(tt.expectedNames), len(users))
			}
			for i, want := range tt.expectedNames {
				if users[i].Username != want {
					t.Errorf("Expected user %d to be %q, got %q", i, want, users[i].Username)
				}
			}
		})
	}
}

func TestUserService_SearchUsers_Limit(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)
	seedUsers(t, db, "u1", "u2", "u3", "u4", "u5")

	users, total, err := service.SearchUsers("searcher", "u", 2)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users with limit 2, got %d", len(users))
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}

	// out-of-range limits fall back to the default
	users, _, err = service.SearchUsers("searcher", "u", 100)
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(users) != 5 {
		t.Errorf("Expected all 5 users under default limit, got %d", len(users))
	}
}
