package broadcast

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// BroadcastMessage represents the broadcast_messages table. It is a
// standalone aggregate, not attached to any conversation.
type BroadcastMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title          string    `gorm:"size:200"`
	Content        string
	SenderID       uuid.UUID `gorm:"type:uuid"`
	TargetAudience string
	MessageType    string
	Priority       string
	Status         string
	ScheduledAt    sql.NullTime
	SentAt         sql.NullTime
	ExpiresAt      sql.NullTime
	// Delivery counters. StatsRead is derived from broadcast_receipts; the
	// receipt rows are the source of truth.
	StatsSent      int
	StatsDelivered int
	StatsRead      int
	Attachments    string
	Metadata       string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Recipients []BroadcastRecipient `gorm:"foreignKey:BroadcastID"`
	ReadBy     []BroadcastReceipt   `gorm:"foreignKey:BroadcastID"`
}

// BroadcastRecipient represents broadcast_recipients, the explicit target
// list used when TargetAudience is SPECIFIC.
type BroadcastRecipient struct {
	BroadcastID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	AddedAt     time.Time
}

// BroadcastReceipt represents broadcast_receipts, one row per user that has
// read the broadcast.
type BroadcastReceipt struct {
	BroadcastID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt      time.Time
}

func (BroadcastMessage) TableName() string {
	return "broadcast_messages"
}

func (BroadcastRecipient) TableName() string {
	return "broadcast_recipients"
}

func (BroadcastReceipt) TableName() string {
	return "broadcast_receipts"
}
