package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"carelink-messaging/internal/domain/broadcast"
	carelink_errors "carelink-messaging/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newBroadcast(sender uuid.UUID, audience, status string) broadcast.BroadcastMessage {
	now := time.Now()
	return broadcast.BroadcastMessage{
		ID:             uuid.New(),
		Title:          "maintenance window",
		Content:        "the portal will be offline tonight",
		SenderID:       sender,
		TargetAudience: audience,
		MessageType:    broadcast.TypeAnnouncement,
		Priority:       "NORMAL",
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func Test_FindDue_Returns_Only_Ripe_Scheduled(t *testing.T) {
	req := require.New(t)
	repo := NewBroadcastRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()

	due := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusScheduled)
	due.ScheduledAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
	future := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusScheduled)
	future.ScheduledAt = sql.NullTime{Time: now.Add(time.Hour), Valid: true}
	sent := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	sent.ScheduledAt = sql.NullTime{Time: now.Add(-time.Hour), Valid: true}
	req.NoError(repo.Create(ctx, &due))
	req.NoError(repo.Create(ctx, &future))
	req.NoError(repo.Create(ctx, &sent))

	items, err := repo.FindDue(ctx, now)
	req.NoError(err)
	req.Len(items, 1)
	req.Equal(due.ID, items[0].ID)
}

func Test_PurgeExpired_Removes_Only_Expired_Sent(t *testing.T) {
	req := require.New(t)
	repo := NewBroadcastRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()

	expired := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	expired.ExpiresAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
	expired.Recipients = []broadcast.BroadcastRecipient{{BroadcastID: expired.ID, UserID: uuid.New(), AddedAt: now}}
	live := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	live.ExpiresAt = sql.NullTime{Time: now.Add(time.Hour), Valid: true}
	forever := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	// A scheduled broadcast past its expiry is left alone until it is sent.
	expiredDraft := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusScheduled)
	expiredDraft.ExpiresAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
	req.NoError(repo.Create(ctx, &expired))
	req.NoError(repo.Create(ctx, &live))
	req.NoError(repo.Create(ctx, &forever))
	req.NoError(repo.Create(ctx, &expiredDraft))

	receipt := broadcast.BroadcastReceipt{BroadcastID: expired.ID, UserID: uuid.New(), ReadAt: now}
	req.NoError(repo.CreateReceipt(ctx, &receipt))

	purged, err := repo.PurgeExpired(ctx, now)
	req.NoError(err)
	req.EqualValues(1, purged)

	_, err = repo.GetByID(ctx, expired.ID)
	req.ErrorIs(err, carelink_errors.ErrNotFound)
	_, err = repo.GetByID(ctx, live.ID)
	req.NoError(err)
	_, err = repo.GetByID(ctx, forever.ID)
	req.NoError(err)
	_, err = repo.GetByID(ctx, expiredDraft.ID)
	req.NoError(err)

	count, err := repo.CountReceipts(ctx, expired.ID)
	req.NoError(err)
	req.Zero(count)
}

func Test_FindByAudience_Visibility(t *testing.T) {
	req := require.New(t)
	repo := NewBroadcastRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()
	patient := uuid.New()

	forPatients := newBroadcast(uuid.New(), broadcast.AudiencePatients, broadcast.StatusSent)
	forDoctors := newBroadcast(uuid.New(), broadcast.AudienceDoctors, broadcast.StatusSent)
	forAll := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	forMe := newBroadcast(uuid.New(), broadcast.AudienceSpecific, broadcast.StatusSent)
	forMe.Recipients = []broadcast.BroadcastRecipient{{BroadcastID: forMe.ID, UserID: patient, AddedAt: now}}
	forSomeoneElse := newBroadcast(uuid.New(), broadcast.AudienceSpecific, broadcast.StatusSent)
	forSomeoneElse.Recipients = []broadcast.BroadcastRecipient{{BroadcastID: forSomeoneElse.ID, UserID: uuid.New(), AddedAt: now}}
	for _, b := range []*broadcast.BroadcastMessage{&forPatients, &forDoctors, &forAll, &forMe, &forSomeoneElse} {
		req.NoError(repo.Create(ctx, b))
	}

	items, total, err := repo.FindByAudience(ctx, broadcast.AudiencePatients, patient, 1, 10, false, now)
	req.NoError(err)
	req.EqualValues(3, total)

	seen := map[uuid.UUID]bool{}
	for _, b := range items {
		seen[b.ID] = true
	}
	req.True(seen[forPatients.ID])
	req.True(seen[forAll.ID])
	req.True(seen[forMe.ID])
	req.False(seen[forDoctors.ID])
	req.False(seen[forSomeoneElse.ID])
}

func Test_FindByAudience_Filters_Status_And_Expiry(t *testing.T) {
	req := require.New(t)
	repo := NewBroadcastRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()
	user := uuid.New()

	sent := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	scheduled := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusScheduled)
	expired := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	expired.ExpiresAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
	req.NoError(repo.Create(ctx, &sent))
	req.NoError(repo.Create(ctx, &scheduled))
	req.NoError(repo.Create(ctx, &expired))

	items, total, err := repo.FindByAudience(ctx, broadcast.AudienceStaff, user, 1, 10, false, now)
	req.NoError(err)
	req.EqualValues(1, total)
	req.Len(items, 1)
	req.Equal(sent.ID, items[0].ID)

	_, total, err = repo.FindByAudience(ctx, broadcast.AudienceStaff, user, 1, 10, true, now)
	req.NoError(err)
	req.EqualValues(3, total)
}

func Test_UpdateDeliveryStats(t *testing.T) {
	req := require.New(t)
	repo := NewBroadcastRepository(openTestDB(t))
	ctx := context.Background()

	b := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	req.NoError(repo.Create(ctx, &b))

	req.NoError(repo.UpdateDeliveryStats(ctx, b.ID, map[string]interface{}{
		"stats_sent":      12,
		"stats_delivered": 7,
	}))

	fetched, err := repo.GetByID(ctx, b.ID)
	req.NoError(err)
	req.Equal(12, fetched.StatsSent)
	req.Equal(7, fetched.StatsDelivered)
	req.Zero(fetched.StatsRead)

	err = repo.UpdateDeliveryStats(ctx, uuid.New(), map[string]interface{}{"stats_sent": 1})
	req.ErrorIs(err, carelink_errors.ErrNotFound)
}

func Test_Broadcast_Duplicate_Receipt_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewBroadcastRepository(openTestDB(t))
	ctx := context.Background()

	b := newBroadcast(uuid.New(), broadcast.AudienceAll, broadcast.StatusSent)
	req.NoError(repo.Create(ctx, &b))

	reader := uuid.New()
	first := broadcast.BroadcastReceipt{BroadcastID: b.ID, UserID: reader, ReadAt: time.Now()}
	req.NoError(repo.CreateReceipt(ctx, &first))

	second := broadcast.BroadcastReceipt{BroadcastID: b.ID, UserID: reader, ReadAt: time.Now()}
	req.ErrorIs(repo.CreateReceipt(ctx, &second), carelink_errors.ErrAlreadyExists)

	count, err := repo.CountReceipts(ctx, b.ID)
	req.NoError(err)
	req.EqualValues(1, count)
}
