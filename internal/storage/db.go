package storage

import (
	. "chatwire/pkg/chat"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DefaultDBPath = "chatwire.db"
)

func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&User{},
		&Chat{},
		&ChatUser{},
		&Message{},
		&RelayEvent{},
	)

	if err != nil {
		return nil, err
	}

	return db, nil
}
