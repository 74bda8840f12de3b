package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carelink-messaging/internal/domain/conversation"
	"carelink-messaging/internal/repository"
	carelink_errors "carelink-messaging/pkg/errors"

	"github.com/google/uuid"
)

type ConversationService struct {
	repo repository.ConversationRepository
}

func NewConversationService(repo repository.ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

// GetOrCreateDirect returns the active DIRECT conversation for the pair,
// creating it if absent. Concurrent callers for the same pair race on the
// direct_key unique index; the loser re-fetches and returns the winner.
func (s *ConversationService) GetOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error) {
	if userA == uuid.Nil || userB == uuid.Nil || userA == userB {
		return conversation.Conversation{}, carelink_errors.ErrInvalidInput
	}

	key := conversation.DirectKeyFor(userA, userB)
	existing, err := s.repo.GetDirectByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, carelink_errors.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	now := time.Now()
	c := conversation.Conversation{
		ID:             uuid.New(),
		Type:           conversation.TypeDirect,
		DirectKey:      sql.NullString{String: key, Valid: true},
		LastActivityAt: now,
		CreatedBy:      userA,
		CreatedAt:      now,
		UpdatedAt:      now,
		Participants: []conversation.Participant{
			{UserID: userA, JoinedAt: now},
			{UserID: userB, JoinedAt: now},
		},
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, carelink_errors.ErrAlreadyExists) {
			// Someone else just created it. Return the winner.
			return s.repo.GetDirectByKey(ctx, key)
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (s *ConversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, participantIDs []uuid.UUID, title string) (conversation.Conversation, error) {
	if creatorID == uuid.Nil {
		return conversation.Conversation{}, carelink_errors.ErrInvalidInput
	}

	now := time.Now()
	seen := map[uuid.UUID]bool{creatorID: true}
	participants := []conversation.Participant{{UserID: creatorID, JoinedAt: now}}
	for _, id := range participantIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, conversation.Participant{UserID: id, JoinedAt: now})
	}
	if len(participants) < 2 {
		return conversation.Conversation{}, carelink_errors.ErrInvalidInput
	}

	c := conversation.Conversation{
		ID:             uuid.New(),
		Type:           conversation.TypeGroup,
		LastActivityAt: now,
		CreatedBy:      creatorID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Participants:   participants,
	}
	if title != "" {
		c.Title = sql.NullString{String: title, Valid: true}
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

// AppendActivity moves the conversation's last-message pointer and bumps its
// activity timestamp.
func (s *ConversationService) AppendActivity(ctx context.Context, conversationID, messageID uuid.UUID) error {
	return s.repo.SetLastMessage(ctx, conversationID, messageID, time.Now())
}

// AddParticipant is idempotent: adding an existing participant is a no-op.
func (s *ConversationService) AddParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, conversationID); err != nil {
		return err
	}
	p := conversation.Participant{
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       time.Now(),
	}
	if err := s.repo.AddParticipant(ctx, &p); err != nil {
		if errors.Is(err, carelink_errors.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	return s.repo.TouchActivity(ctx, conversationID, time.Now())
}

// RemoveParticipant is idempotent: removing an absent participant is a no-op.
func (s *ConversationService) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, conversationID); err != nil {
		return err
	}
	if err := s.repo.RemoveParticipant(ctx, conversationID, userID); err != nil {
		if errors.Is(err, carelink_errors.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.repo.TouchActivity(ctx, conversationID, time.Now())
}

func (s *ConversationService) Archive(ctx context.Context, conversationID uuid.UUID) error {
	return s.repo.Archive(ctx, conversationID)
}

func (s *ConversationService) Unarchive(ctx context.Context, conversationID uuid.UUID) error {
	return s.repo.Unarchive(ctx, conversationID)
}

func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetUserConversations(ctx, userID, page, limit)
}

// GetForUser returns the conversation only if the requester participates in
// it.
func (s *ConversationService) GetForUser(ctx context.Context, id, requesterID uuid.UUID) (conversation.Conversation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !c.HasParticipant(requesterID) {
		return conversation.Conversation{}, carelink_errors.ErrForbidden
	}
	return c, nil
}
