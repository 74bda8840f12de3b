package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carelink-messaging/internal/domain/broadcast"
	"carelink-messaging/internal/repository"
	carelink_errors "carelink-messaging/pkg/errors"
	"carelink-messaging/pkg/events"
	"carelink-messaging/pkg/logger"

	"github.com/google/uuid"
)

type BroadcastService struct {
	repo      repository.BroadcastRepository
	publisher events.Publisher
	logger    *logger.Logger
}

func NewBroadcastService(repo repository.BroadcastRepository, publisher events.Publisher, l *logger.Logger) *BroadcastService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BroadcastService{repo: repo, publisher: publisher, logger: l}
}

type CreateBroadcastInput struct {
	SenderID           uuid.UUID
	SenderRole         string
	Title              string
	Content            string
	TargetAudience     string
	SpecificRecipients []uuid.UUID
	MessageType        string
	Priority           string
	ScheduledAt        *time.Time
	ExpiresAt          *time.Time
	Attachments        string
	Metadata           string
}

func (in *CreateBroadcastInput) validate(now time.Time) error {
	if in.SenderID == uuid.Nil || in.Title == "" || in.Content == "" {
		return carelink_errors.ErrInvalidInput
	}
	if len(in.Title) > broadcast.MaxTitleLength {
		return carelink_errors.ErrInvalidInput
	}
	if in.MessageType == "" {
		in.MessageType = broadcast.TypeAnnouncement
	}
	if in.Priority == "" {
		in.Priority = "NORMAL"
	}
	if !broadcast.ValidAudience(in.TargetAudience) || !broadcast.ValidMessageType(in.MessageType) {
		return carelink_errors.ErrInvalidInput
	}
	if in.TargetAudience == broadcast.AudienceSpecific && len(in.SpecificRecipients) == 0 {
		return carelink_errors.ErrInvalidInput
	}
	if in.ScheduledAt != nil && !in.ScheduledAt.After(now) {
		return carelink_errors.ErrInvalidInput
	}
	if in.ExpiresAt != nil {
		floor := now
		if in.ScheduledAt != nil {
			floor = *in.ScheduledAt
		}
		if in.ExpiresAt.Before(floor) {
			return carelink_errors.ErrInvalidInput
		}
	}
	return nil
}

// Create authors a broadcast. Only staff and admins may do so. A future
// scheduledAt yields a SCHEDULED broadcast picked up later by the scheduler;
// otherwise it goes out as SENT immediately.
func (s *BroadcastService) Create(ctx context.Context, in CreateBroadcastInput) (broadcast.BroadcastMessage, error) {
	if !broadcast.CanCreateBroadcast(in.SenderRole) {
		return broadcast.BroadcastMessage{}, carelink_errors.ErrForbidden
	}
	now := time.Now()
	if err := in.validate(now); err != nil {
		return broadcast.BroadcastMessage{}, err
	}

	b := broadcast.BroadcastMessage{
		ID:             uuid.New(),
		Title:          in.Title,
		Content:        in.Content,
		SenderID:       in.SenderID,
		TargetAudience: in.TargetAudience,
		MessageType:    in.MessageType,
		Priority:       in.Priority,
		Attachments:    in.Attachments,
		Metadata:       in.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.ScheduledAt != nil {
		b.Status = broadcast.StatusScheduled
		b.ScheduledAt = sql.NullTime{Time: *in.ScheduledAt, Valid: true}
	} else {
		b.Status = broadcast.StatusSent
		b.SentAt = sql.NullTime{Time: now, Valid: true}
	}
	if in.ExpiresAt != nil {
		b.ExpiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
	}
	if in.TargetAudience == broadcast.AudienceSpecific {
		seen := map[uuid.UUID]bool{}
		for _, id := range in.SpecificRecipients {
			if id == uuid.Nil || seen[id] {
				continue
			}
			seen[id] = true
			b.Recipients = append(b.Recipients, broadcast.BroadcastRecipient{
				BroadcastID: b.ID,
				UserID:      id,
				AddedAt:     now,
			})
		}
		if len(b.Recipients) == 0 {
			return broadcast.BroadcastMessage{}, carelink_errors.ErrInvalidInput
		}
	}

	if err := s.repo.Create(ctx, &b); err != nil {
		return broadcast.BroadcastMessage{}, err
	}
	if b.Status == broadcast.StatusSent {
		s.publish(ctx, b)
	}
	return b, nil
}

func (s *BroadcastService) Get(ctx context.Context, id uuid.UUID) (broadcast.BroadcastMessage, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus applies a guarded transition: DRAFT -> SCHEDULED -> SENT, and
// any non-terminal state -> CANCELLED. sentAt is recorded exactly once, when
// the broadcast first becomes SENT.
func (s *BroadcastService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, sentAt *time.Time) (broadcast.BroadcastMessage, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return broadcast.BroadcastMessage{}, err
	}
	if b.Status == status {
		return b, nil
	}
	if !broadcast.CanTransition(b.Status, status) {
		return broadcast.BroadcastMessage{}, carelink_errors.ErrInvalidTransition
	}

	b.Status = status
	b.UpdatedAt = time.Now()
	if status == broadcast.StatusSent && !b.SentAt.Valid {
		at := time.Now()
		if sentAt != nil {
			at = *sentAt
		}
		b.SentAt = sql.NullTime{Time: at, Valid: true}
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return broadcast.BroadcastMessage{}, err
	}
	if status == broadcast.StatusSent {
		s.publish(ctx, b)
	}
	return b, nil
}

// DeliveryStatsUpdate carries replacement values for the sent/delivered
// counters. The read counter is not settable: it is derived from receipts.
type DeliveryStatsUpdate struct {
	Sent      *int
	Delivered *int
}

func (s *BroadcastService) UpdateDeliveryStats(ctx context.Context, id uuid.UUID, update DeliveryStatsUpdate) error {
	stats := map[string]interface{}{}
	if update.Sent != nil {
		stats["stats_sent"] = *update.Sent
	}
	if update.Delivered != nil {
		stats["stats_delivered"] = *update.Delivered
	}
	if len(stats) == 0 {
		return nil
	}
	return s.repo.UpdateDeliveryStats(ctx, id, stats)
}

// MarkRead records a per-user read receipt (idempotent) and refreshes the
// derived read counter from the receipt count.
func (s *BroadcastService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	receipt := broadcast.BroadcastReceipt{
		BroadcastID: id,
		UserID:      userID,
		ReadAt:      time.Now(),
	}
	if err := s.repo.CreateReceipt(ctx, &receipt); err != nil {
		if errors.Is(err, carelink_errors.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	count, err := s.repo.CountReceipts(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateDeliveryStats(ctx, id, map[string]interface{}{"stats_read": count})
}

// ListFor resolves the requester's role to an audience tag and returns the
// broadcasts visible to them.
func (s *BroadcastService) ListFor(ctx context.Context, requesterID uuid.UUID, role string, page, limit int, allStatuses bool) ([]broadcast.BroadcastMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	tag := broadcast.ResolveAudience(role)
	return s.repo.FindByAudience(ctx, tag, requesterID, page, limit, allStatuses, time.Now())
}

func (s *BroadcastService) FindDue(ctx context.Context, now time.Time) ([]broadcast.BroadcastMessage, error) {
	return s.repo.FindDue(ctx, now)
}

func (s *BroadcastService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.PurgeExpired(ctx, now)
}

func (s *BroadcastService) publish(ctx context.Context, b broadcast.BroadcastMessage) {
	err := s.publisher.Publish(ctx, events.ChannelBroadcasts, events.Event{
		Type:      events.EventBroadcastSent,
		Payload:   b,
		Timestamp: time.Now().Unix(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warnf("failed to publish %s event: %s", events.EventBroadcastSent, err)
	}
}
