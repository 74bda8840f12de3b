package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid"`
	SenderID       uuid.UUID `gorm:"type:uuid"`
	Subject        sql.NullString
	Content        string
	Type           string
	Priority       string
	Status         string
	Encrypted      bool `gorm:"default:true"`
	// Attachments and Metadata are opaque JSON blobs passed through unchanged.
	Attachments string
	Metadata    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Recipients []MessageRecipient `gorm:"foreignKey:MessageID"`
	Receipts   []MessageReceipt   `gorm:"foreignKey:MessageID"`
}

// MessageRecipient represents message_recipients.
type MessageRecipient struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// MessageReceipt represents message_receipts. The composite primary key
// keeps at most one receipt per user per message.
type MessageReceipt struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt    time.Time
}

func (Message) TableName() string {
	return "messages"
}

func (MessageRecipient) TableName() string {
	return "message_recipients"
}

func (MessageReceipt) TableName() string {
	return "message_receipts"
}

// IsRecipient reports whether userID is in the loaded recipient set.
func (m Message) IsRecipient(userID uuid.UUID) bool {
	for _, r := range m.Recipients {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// ReadBy reports whether userID has a read receipt on the loaded message.
func (m Message) ReadBy(userID uuid.UUID) bool {
	for _, r := range m.Receipts {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
