package conversation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Conversation kinds
const (
	TypeDirect    = "DIRECT"
	TypeGroup     = "GROUP"
	TypeBroadcast = "BROADCAST"
)

// Conversation represents the conversations table.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type        string
	Title       sql.NullString
	Description sql.NullString
	// DirectKey is the normalized "minUserID:maxUserID" pair key for DIRECT
	// conversations. NULL for groups and for archived directs, so the unique
	// index only guards the single active conversation per pair.
	DirectKey      sql.NullString `gorm:"uniqueIndex"`
	LastMessageID  uuid.NullUUID  `gorm:"type:uuid"`
	LastActivityAt time.Time
	Archived       bool `gorm:"default:false"`
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant represents the participants table.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt       time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "participants"
}

// DirectKeyFor normalizes an unordered user pair into the key stored on
// DIRECT conversations. Both orderings of the pair yield the same key.
func DirectKeyFor(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}

// HasParticipant reports whether userID is in the loaded participant set.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
