package user

import (
	"errors"
	"strings"

	. "chatwire/pkg/chat"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(userID string) (*User, error) {
	var user User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// SearchUsers finds users by username substring, excluding the searcher.
// Used to pick someone to start a chat with.
func (s *UserService) SearchUsers(searcherID, query string, limit int) ([]User, int64, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	likeQuery := "%" + strings.ToLower(query) + "%"

	var total int64
	countQuery := s.db.Model(&User{}).Where("LOWER(username) LIKE ? AND id != ?", likeQuery, searcherID)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	searchQuery := s.db.Where("LOWER(username) LIKE ? AND id != ?", likeQuery, searcherID).
		Order("username ASC").
		Limit(limit)

	if err := searchQuery.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
