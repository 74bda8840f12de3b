package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carelink-messaging/internal/domain/message"
	"carelink-messaging/internal/repository"
	carelink_errors "carelink-messaging/pkg/errors"
	"carelink-messaging/pkg/events"
	"carelink-messaging/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageService struct {
	db            *gorm.DB
	messageRepo   repository.MessageRepository
	conversations *ConversationService
	publisher     events.Publisher
	logger        *logger.Logger
}

func NewMessageService(db *gorm.DB, messageRepo repository.MessageRepository, conversations *ConversationService, publisher events.Publisher, l *logger.Logger) *MessageService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MessageService{
		db:            db,
		messageRepo:   messageRepo,
		conversations: conversations,
		publisher:     publisher,
		logger:        l,
	}
}

type SendMessageInput struct {
	ConversationID *uuid.UUID
	SenderID       uuid.UUID
	RecipientIDs   []uuid.UUID
	Subject        string
	Content        string
	Type           string
	Priority       string
	Attachments    string
	Metadata       string
}

func (in *SendMessageInput) validate() error {
	if in.SenderID == uuid.Nil || in.Content == "" || len(in.RecipientIDs) == 0 {
		return carelink_errors.ErrInvalidInput
	}
	if in.Type == "" {
		in.Type = message.TypeText
	}
	if in.Priority == "" {
		in.Priority = message.PriorityNormal
	}
	if !message.ValidType(in.Type) || !message.ValidPriority(in.Priority) {
		return carelink_errors.ErrInvalidInput
	}
	return nil
}

// Send creates a message and advances the conversation's last-message
// pointer in a single transaction, so neither can exist without the other.
// Without an explicit conversation id the message must have exactly one
// recipient and goes to the direct conversation for the pair, created on
// first contact.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (message.Message, error) {
	if err := in.validate(); err != nil {
		return message.Message{}, err
	}

	var conversationID uuid.UUID
	if in.ConversationID != nil {
		c, err := s.conversations.GetForUser(ctx, *in.ConversationID, in.SenderID)
		if err != nil {
			return message.Message{}, err
		}
		conversationID = c.ID
	} else {
		if len(in.RecipientIDs) != 1 {
			return message.Message{}, carelink_errors.ErrInvalidInput
		}
		c, err := s.conversations.GetOrCreateDirect(ctx, in.SenderID, in.RecipientIDs[0])
		if err != nil {
			return message.Message{}, err
		}
		conversationID = c.ID
	}

	now := time.Now()
	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		Type:           in.Type,
		Priority:       in.Priority,
		Status:         message.StatusSent,
		Encrypted:      true,
		Attachments:    in.Attachments,
		Metadata:       in.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Subject != "" {
		msg.Subject = sql.NullString{String: in.Subject, Valid: true}
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range in.RecipientIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		msg.Recipients = append(msg.Recipients, message.MessageRecipient{MessageID: msg.ID, UserID: id})
	}
	if len(msg.Recipients) == 0 {
		return message.Message{}, carelink_errors.ErrInvalidInput
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgRepo := repository.NewMessageRepository(tx)
		convRepo := repository.NewConversationRepository(tx)

		if err := msgRepo.Create(ctx, &msg); err != nil {
			return err
		}
		return convRepo.SetLastMessage(ctx, conversationID, msg.ID, now)
	})
	if err != nil {
		return message.Message{}, err
	}

	s.publish(ctx, events.ChannelMessages, events.EventMessageCreated, msg)
	return msg, nil
}

// MarkRead records a read receipt for the user. Calling it again for the
// same user is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID && !msg.IsRecipient(userID) {
		return carelink_errors.ErrForbidden
	}
	receipt := message.MessageReceipt{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now(),
	}
	if err := s.messageRepo.CreateReceipt(ctx, &receipt); err != nil {
		if errors.Is(err, carelink_errors.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

// SetStatus applies an explicit SENT -> DELIVERED -> READ transition.
// Downgrades are rejected; setting the current status again is a no-op.
func (s *MessageService) SetStatus(ctx context.Context, messageID, requesterID uuid.UUID, status string) (message.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.SenderID != requesterID && !msg.IsRecipient(requesterID) {
		return message.Message{}, carelink_errors.ErrForbidden
	}
	if !message.CanTransition(msg.Status, status) {
		return message.Message{}, carelink_errors.ErrInvalidTransition
	}
	if msg.Status == status {
		return msg, nil
	}
	if err := s.messageRepo.UpdateStatus(ctx, messageID, status); err != nil {
		return message.Message{}, err
	}
	msg.Status = status
	return msg, nil
}

// Get returns the message for a sender or recipient. A recipient reading the
// message for the first time gets a read receipt recorded as a side effect.
func (s *MessageService) Get(ctx context.Context, messageID, requesterID uuid.UUID) (message.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.SenderID != requesterID && !msg.IsRecipient(requesterID) {
		return message.Message{}, carelink_errors.ErrForbidden
	}
	if msg.IsRecipient(requesterID) && !msg.ReadBy(requesterID) {
		receipt := message.MessageReceipt{
			MessageID: messageID,
			UserID:    requesterID,
			ReadAt:    time.Now(),
		}
		if err := s.messageRepo.CreateReceipt(ctx, &receipt); err != nil && !errors.Is(err, carelink_errors.ErrAlreadyExists) {
			return message.Message{}, err
		}
		msg.Receipts = append(msg.Receipts, receipt)
	}
	return msg, nil
}

func (s *MessageService) UnreadCountFor(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}

func (s *MessageService) ListForConversation(ctx context.Context, conversationID, requesterID uuid.UUID, limit, skip int) ([]message.Message, error) {
	if _, err := s.conversations.GetForUser(ctx, conversationID, requesterID); err != nil {
		return nil, err
	}
	return s.messageRepo.GetConversationMessages(ctx, conversationID, limit, skip)
}

func (s *MessageService) ListForUser(ctx context.Context, userID uuid.UUID, limit, skip int) ([]message.Message, error) {
	return s.messageRepo.GetUserMessages(ctx, userID, limit, skip)
}

func (s *MessageService) ListByPriority(ctx context.Context, priority string, limit int) ([]message.Message, error) {
	if !message.ValidPriority(priority) {
		return nil, carelink_errors.ErrInvalidInput
	}
	return s.messageRepo.GetByPriority(ctx, priority, limit)
}

// publish notifies external delivery channels. The store is the source of
// truth, so a publish failure is logged and never fails the operation.
func (s *MessageService) publish(ctx context.Context, channel, eventType string, payload interface{}) {
	err := s.publisher.Publish(ctx, channel, events.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warnf("failed to publish %s event: %s", eventType, err)
	}
}
