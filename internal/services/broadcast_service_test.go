package services

import (
	"context"
	"testing"
	"time"

	"carelink-messaging/internal/domain/broadcast"
	"carelink-messaging/internal/repository"
	carelink_errors "carelink-messaging/pkg/errors"
	"carelink-messaging/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newBroadcastService(t *testing.T) (*BroadcastService, *capturingPublisher) {
	t.Helper()
	publisher := &capturingPublisher{}
	svc := NewBroadcastService(repository.NewBroadcastRepository(openTestDB(t)), publisher, logger.NewNop())
	return svc, publisher
}

func staffBroadcast(audience string) CreateBroadcastInput {
	return CreateBroadcastInput{
		SenderID:       uuid.New(),
		SenderRole:     broadcast.RoleStaff,
		Title:          "flu shots available",
		Content:        "walk-ins welcome this week",
		TargetAudience: audience,
	}
}

func Test_CreateBroadcast_Requires_Staff_Or_Admin(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	for _, role := range []string{broadcast.RolePatient, broadcast.RoleDoctor, ""} {
		in := staffBroadcast(broadcast.AudienceAll)
		in.SenderRole = role
		_, err := svc.Create(ctx, in)
		req.ErrorIs(err, carelink_errors.ErrForbidden, "role %q", role)
	}

	in := staffBroadcast(broadcast.AudienceAll)
	in.SenderRole = broadcast.RoleAdmin
	_, err := svc.Create(ctx, in)
	req.NoError(err)
}

func Test_CreateBroadcast_Immediate_Is_Sent(t *testing.T) {
	req := require.New(t)
	svc, publisher := newBroadcastService(t)

	b, err := svc.Create(context.Background(), staffBroadcast(broadcast.AudienceAll))
	req.NoError(err)
	req.Equal(broadcast.StatusSent, b.Status)
	req.True(b.SentAt.Valid)
	req.Equal(broadcast.TypeAnnouncement, b.MessageType)
	req.Len(publisher.events, 1)
}

func Test_CreateBroadcast_Scheduled_Waits(t *testing.T) {
	req := require.New(t)
	svc, publisher := newBroadcastService(t)

	in := staffBroadcast(broadcast.AudienceAll)
	at := time.Now().Add(time.Hour)
	in.ScheduledAt = &at
	b, err := svc.Create(context.Background(), in)
	req.NoError(err)
	req.Equal(broadcast.StatusScheduled, b.Status)
	req.False(b.SentAt.Valid)
	req.Empty(publisher.events)
}

func Test_CreateBroadcast_Validation(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	// SPECIFIC targeting without recipients.
	in := staffBroadcast(broadcast.AudienceSpecific)
	_, err := svc.Create(ctx, in)
	req.ErrorIs(err, carelink_errors.ErrInvalidInput)

	// Schedule in the past.
	in = staffBroadcast(broadcast.AudienceAll)
	past := time.Now().Add(-time.Minute)
	in.ScheduledAt = &past
	_, err = svc.Create(ctx, in)
	req.ErrorIs(err, carelink_errors.ErrInvalidInput)

	// Expiry before the scheduled send.
	in = staffBroadcast(broadcast.AudienceAll)
	at := time.Now().Add(2 * time.Hour)
	expires := time.Now().Add(time.Hour)
	in.ScheduledAt = &at
	in.ExpiresAt = &expires
	_, err = svc.Create(ctx, in)
	req.ErrorIs(err, carelink_errors.ErrInvalidInput)

	// Oversized title.
	in = staffBroadcast(broadcast.AudienceAll)
	for len(in.Title) <= broadcast.MaxTitleLength {
		in.Title += in.Title
	}
	_, err = svc.Create(ctx, in)
	req.ErrorIs(err, carelink_errors.ErrInvalidInput)

	// Unknown audience.
	in = staffBroadcast("EVERYONE")
	_, err = svc.Create(ctx, in)
	req.ErrorIs(err, carelink_errors.ErrInvalidInput)
}

func Test_UpdateStatus_Transitions(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	in := staffBroadcast(broadcast.AudienceAll)
	at := time.Now().Add(time.Hour)
	in.ScheduledAt = &at
	b, err := svc.Create(ctx, in)
	req.NoError(err)

	// Same status is a no-op.
	same, err := svc.UpdateStatus(ctx, b.ID, broadcast.StatusScheduled, nil)
	req.NoError(err)
	req.Equal(b.ID, same.ID)

	sent, err := svc.UpdateStatus(ctx, b.ID, broadcast.StatusSent, nil)
	req.NoError(err)
	req.True(sent.SentAt.Valid)
	firstSentAt := sent.SentAt.Time

	// No way back to SCHEDULED.
	_, err = svc.UpdateStatus(ctx, b.ID, broadcast.StatusScheduled, nil)
	req.ErrorIs(err, carelink_errors.ErrInvalidTransition)

	// Re-sending does not move sentAt.
	again, err := svc.UpdateStatus(ctx, b.ID, broadcast.StatusSent, nil)
	req.NoError(err)
	req.Equal(firstSentAt.Unix(), again.SentAt.Time.Unix())
}

func Test_Cancel_Sent_Broadcast(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, staffBroadcast(broadcast.AudienceAll))
	req.NoError(err)
	req.Equal(broadcast.StatusSent, b.Status)

	cancelled, err := svc.UpdateStatus(ctx, b.ID, broadcast.StatusCancelled, nil)
	req.NoError(err)
	req.Equal(broadcast.StatusCancelled, cancelled.Status)
	req.Equal(b.SentAt.Time.Unix(), cancelled.SentAt.Time.Unix())

	// Cancelled broadcasts drop out of default listings.
	_, total, err := svc.ListFor(ctx, uuid.New(), broadcast.RolePatient, 1, 10, false)
	req.NoError(err)
	req.Zero(total)

	// CANCELLED is terminal.
	_, err = svc.UpdateStatus(ctx, b.ID, broadcast.StatusSent, nil)
	req.ErrorIs(err, carelink_errors.ErrInvalidTransition)
}

func Test_Cancel_Scheduled_Broadcast(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	in := staffBroadcast(broadcast.AudienceAll)
	at := time.Now().Add(time.Hour)
	in.ScheduledAt = &at
	b, err := svc.Create(ctx, in)
	req.NoError(err)

	cancelled, err := svc.UpdateStatus(ctx, b.ID, broadcast.StatusCancelled, nil)
	req.NoError(err)
	req.Equal(broadcast.StatusCancelled, cancelled.Status)
	req.False(cancelled.SentAt.Valid)

	_, err = svc.UpdateStatus(ctx, b.ID, broadcast.StatusSent, nil)
	req.ErrorIs(err, carelink_errors.ErrInvalidTransition)
}

func Test_MarkRead_Syncs_Read_Counter(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, staffBroadcast(broadcast.AudienceAll))
	req.NoError(err)

	readerA, readerB := uuid.New(), uuid.New()
	req.NoError(svc.MarkRead(ctx, b.ID, readerA))
	req.NoError(svc.MarkRead(ctx, b.ID, readerA))
	req.NoError(svc.MarkRead(ctx, b.ID, readerB))

	fetched, err := svc.Get(ctx, b.ID)
	req.NoError(err)
	req.Equal(2, fetched.StatsRead)
	req.Len(fetched.ReadBy, 2)

	req.ErrorIs(svc.MarkRead(ctx, uuid.New(), readerA), carelink_errors.ErrNotFound)
}

func Test_UpdateDeliveryStats_Leaves_Read_Alone(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, staffBroadcast(broadcast.AudienceAll))
	req.NoError(err)
	req.NoError(svc.MarkRead(ctx, b.ID, uuid.New()))

	sent, delivered := 40, 35
	req.NoError(svc.UpdateDeliveryStats(ctx, b.ID, DeliveryStatsUpdate{Sent: &sent, Delivered: &delivered}))

	fetched, err := svc.Get(ctx, b.ID)
	req.NoError(err)
	req.Equal(40, fetched.StatsSent)
	req.Equal(35, fetched.StatsDelivered)
	req.Equal(1, fetched.StatsRead)

	// Empty update is a no-op even for an unknown id.
	req.NoError(svc.UpdateDeliveryStats(ctx, uuid.New(), DeliveryStatsUpdate{}))
}

func Test_ListFor_Resolves_Role_To_Audience(t *testing.T) {
	req := require.New(t)
	svc, _ := newBroadcastService(t)
	ctx := context.Background()

	patientOnly := staffBroadcast(broadcast.AudiencePatients)
	_, err := svc.Create(ctx, patientOnly)
	req.NoError(err)
	_, err = svc.Create(ctx, staffBroadcast(broadcast.AudienceAll))
	req.NoError(err)

	_, total, err := svc.ListFor(ctx, uuid.New(), broadcast.RolePatient, 1, 10, false)
	req.NoError(err)
	req.EqualValues(2, total)

	_, total, err = svc.ListFor(ctx, uuid.New(), broadcast.RoleDoctor, 1, 10, false)
	req.NoError(err)
	req.EqualValues(1, total)
}

func Test_Scheduler_Tick_Promotes_Due_And_Purges_Expired(t *testing.T) {
	req := require.New(t)
	svc, publisher := newBroadcastService(t)
	ctx := context.Background()

	// Due in the immediate future so the tick below sees it as ripe.
	in := staffBroadcast(broadcast.AudienceAll)
	at := time.Now().Add(10 * time.Millisecond)
	in.ScheduledAt = &at
	due, err := svc.Create(ctx, in)
	req.NoError(err)

	expired, err := svc.Create(ctx, staffBroadcast(broadcast.AudienceAll))
	req.NoError(err)
	past := time.Now().Add(-time.Minute)
	_, err = svc.repo.GetByID(ctx, expired.ID)
	req.NoError(err)
	expired.ExpiresAt.Time = past
	expired.ExpiresAt.Valid = true
	req.NoError(svc.repo.Update(ctx, expired))

	time.Sleep(20 * time.Millisecond)

	scheduler := NewBroadcastScheduler(svc, logger.NewNop(), time.Minute)
	scheduler.Tick(ctx)

	promoted, err := svc.Get(ctx, due.ID)
	req.NoError(err)
	req.Equal(broadcast.StatusSent, promoted.Status)
	req.True(promoted.SentAt.Valid)

	_, err = svc.Get(ctx, expired.ID)
	req.ErrorIs(err, carelink_errors.ErrNotFound)

	// One publish for the immediate create, one for the promotion.
	req.Len(publisher.events, 2)

	// A second tick is a no-op.
	scheduler.Tick(ctx)
	again, err := svc.Get(ctx, due.ID)
	req.NoError(err)
	req.Equal(promoted.SentAt.Time.Unix(), again.SentAt.Time.Unix())
	req.Len(publisher.events, 2)
}

func Test_Scheduler_Start_Stop(t *testing.T) {
	svc, _ := newBroadcastService(t)
	scheduler := NewBroadcastScheduler(svc, logger.NewNop(), 10*time.Millisecond)
	scheduler.Start()
	time.Sleep(30 * time.Millisecond)
	scheduler.Stop()
}
