package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carelink-messaging/internal/domain/broadcast"
	"carelink-messaging/internal/domain/conversation"
	"carelink-messaging/internal/domain/message"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetDirectByKey(ctx context.Context, key string) (conversation.Conversation, error)
	Update(ctx context.Context, c conversation.Conversation) error

	SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error
	TouchActivity(ctx context.Context, conversationID uuid.UUID, at time.Time) error

	AddParticipant(ctx context.Context, p *conversation.Participant) error
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)

	Archive(ctx context.Context, id uuid.UUID) error
	Unarchive(ctx context.Context, id uuid.UUID) error

	GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	CreateReceipt(ctx context.Context, r *message.MessageReceipt) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit, skip int) ([]message.Message, error)
	GetUserMessages(ctx context.Context, userID uuid.UUID, limit, skip int) ([]message.Message, error)
	GetByPriority(ctx context.Context, priority string, limit int) ([]message.Message, error)
}

type BroadcastRepository interface {
	Create(ctx context.Context, b *broadcast.BroadcastMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (broadcast.BroadcastMessage, error)
	Update(ctx context.Context, b broadcast.BroadcastMessage) error

	CreateReceipt(ctx context.Context, r *broadcast.BroadcastReceipt) error
	CountReceipts(ctx context.Context, broadcastID uuid.UUID) (int64, error)
	UpdateDeliveryStats(ctx context.Context, id uuid.UUID, stats map[string]interface{}) error

	FindDue(ctx context.Context, now time.Time) ([]broadcast.BroadcastMessage, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)

	FindByAudience(ctx context.Context, tag string, userID uuid.UUID, page, limit int, allStatuses bool, now time.Time) ([]broadcast.BroadcastMessage, int64, error)
}
