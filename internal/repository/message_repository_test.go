package repository

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"carelink-messaging/internal/domain/message"
	carelink_errors "carelink-messaging/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMessage(conversationID, sender uuid.UUID, recipients []uuid.UUID, at time.Time) message.Message {
	m := message.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender,
		Content:        "hello",
		Type:           message.TypeText,
		Priority:       message.PriorityNormal,
		Status:         message.StatusSent,
		Encrypted:      true,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	for _, r := range recipients {
		m.Recipients = append(m.Recipients, message.MessageRecipient{MessageID: m.ID, UserID: r})
	}
	return m
}

func Test_Create_Message_With_Recipients(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))
	ctx := context.Background()

	recipient := uuid.New()
	m := newMessage(uuid.New(), uuid.New(), []uuid.UUID{recipient}, time.Now())
	req.NoError(repo.Create(ctx, &m))

	fetched, err := repo.GetByID(ctx, m.ID)
	req.NoError(err)
	req.Equal(m.Content, fetched.Content)
	req.Len(fetched.Recipients, 1)
	req.Equal(recipient, fetched.Recipients[0].UserID)
	req.Empty(fetched.Receipts)
}

func Test_Duplicate_Receipt_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))
	ctx := context.Background()

	recipient := uuid.New()
	m := newMessage(uuid.New(), uuid.New(), []uuid.UUID{recipient}, time.Now())
	req.NoError(repo.Create(ctx, &m))

	first := message.MessageReceipt{MessageID: m.ID, UserID: recipient, ReadAt: time.Now()}
	req.NoError(repo.CreateReceipt(ctx, &first))

	second := message.MessageReceipt{MessageID: m.ID, UserID: recipient, ReadAt: time.Now()}
	err := repo.CreateReceipt(ctx, &second)
	req.ErrorIs(err, carelink_errors.ErrAlreadyExists)

	fetched, err := repo.GetByID(ctx, m.ID)
	req.NoError(err)
	req.Len(fetched.Receipts, 1)
}

// Unread count must equal addressed messages minus those carrying a receipt
// from the user, across randomly generated message/receipt sets.
func Test_CountUnread_Property(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))
	ctx := context.Background()

	rng := rand.New(rand.NewSource(42))
	user := uuid.New()
	conversationID := uuid.New()

	expected := 0
	for i := 0; i < 40; i++ {
		addressed := rng.Intn(2) == 0
		recipients := []uuid.UUID{uuid.New()}
		if addressed {
			recipients = append(recipients, user)
		}
		m := newMessage(conversationID, uuid.New(), recipients, time.Now())
		req.NoError(repo.Create(ctx, &m))

		if addressed {
			if rng.Intn(2) == 0 {
				receipt := message.MessageReceipt{MessageID: m.ID, UserID: user, ReadAt: time.Now()}
				req.NoError(repo.CreateReceipt(ctx, &receipt))
			} else {
				expected++
			}
		}
	}

	count, err := repo.CountUnread(ctx, user)
	req.NoError(err)
	req.EqualValues(expected, count)
}

func Test_GetConversationMessages_Newest_First(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))
	ctx := context.Background()

	conversationID := uuid.New()
	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		m := newMessage(conversationID, uuid.New(), []uuid.UUID{uuid.New()}, base.Add(time.Duration(i)*time.Minute))
		req.NoError(repo.Create(ctx, &m))
		ids = append(ids, m.ID)
	}

	items, err := repo.GetConversationMessages(ctx, conversationID, 10, 0)
	req.NoError(err)
	req.Len(items, 3)
	req.Equal(ids[2], items[0].ID)
	req.Equal(ids[0], items[2].ID)
}

func Test_GetUserMessages_Includes_Sent_And_Received(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))
	ctx := context.Background()

	user := uuid.New()
	sent := newMessage(uuid.New(), user, []uuid.UUID{uuid.New()}, time.Now())
	received := newMessage(uuid.New(), uuid.New(), []uuid.UUID{user}, time.Now())
	unrelated := newMessage(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
	req.NoError(repo.Create(ctx, &sent))
	req.NoError(repo.Create(ctx, &received))
	req.NoError(repo.Create(ctx, &unrelated))

	items, err := repo.GetUserMessages(ctx, user, 10, 0)
	req.NoError(err)
	req.Len(items, 2)
}

func Test_GetByPriority(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))
	ctx := context.Background()

	urgent := newMessage(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
	urgent.Priority = message.PriorityUrgent
	normal := newMessage(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
	req.NoError(repo.Create(ctx, &urgent))
	req.NoError(repo.Create(ctx, &normal))

	items, err := repo.GetByPriority(ctx, message.PriorityUrgent, 10)
	req.NoError(err)
	req.Len(items, 1)
	req.Equal(urgent.ID, items[0].ID)
}

func Test_UpdateStatus_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(openTestDB(t))

	err := repo.UpdateStatus(context.Background(), uuid.New(), message.StatusDelivered)
	req.ErrorIs(err, carelink_errors.ErrNotFound)
}
