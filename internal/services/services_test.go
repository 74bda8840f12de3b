package services

import (
	"path/filepath"
	"testing"

	"carelink-messaging/internal/domain/broadcast"
	"carelink-messaging/internal/domain/conversation"
	"carelink-messaging/internal/domain/message"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&conversation.Conversation{},
		&conversation.Participant{},
		&message.Message{},
		&message.MessageRecipient{},
		&message.MessageReceipt{},
		&broadcast.BroadcastMessage{},
		&broadcast.BroadcastRecipient{},
		&broadcast.BroadcastReceipt{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
