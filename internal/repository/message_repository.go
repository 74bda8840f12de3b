package repository

import (
	"context"
	"errors"
	"time"

	"carelink-messaging/internal/domain/message"
	carelink_errors "carelink-messaging/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

// Create inserts the message together with its recipient rows.
func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return carelink_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Preload("Receipts").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, carelink_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carelink_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) CreateReceipt(ctx context.Context, receipt *message.MessageReceipt) error {
	res := r.db.WithContext(ctx).Create(receipt)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return carelink_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

// CountUnread counts messages addressed to userID with no read receipt from
// them.
func (r *PostgresMessageRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.MessageRecipient{}).
		Where("user_id = ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM message_receipts WHERE message_receipts.message_id = message_recipients.message_id AND message_receipts.user_id = ?)", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresMessageRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit, skip int) ([]message.Message, error) {
	var messages []message.Message
	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Preload("Receipts").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(normalizeLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) GetUserMessages(ctx context.Context, userID uuid.UUID, limit, skip int) ([]message.Message, error) {
	var messages []message.Message

	subQuery := r.db.Model(&message.MessageRecipient{}).
		Select("message_id").
		Where("user_id = ?", userID)

	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Preload("Receipts").
		Where("sender_id = ? OR id IN (?)", userID, subQuery).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(normalizeLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) GetByPriority(ctx context.Context, priority string, limit int) ([]message.Message, error) {
	var messages []message.Message
	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Preload("Receipts").
		Where("priority = ?", priority).
		Order("created_at DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
