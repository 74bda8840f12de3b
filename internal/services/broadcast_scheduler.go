package services

import (
	"context"
	"sync"
	"time"

	"carelink-messaging/internal/domain/broadcast"
	"carelink-messaging/pkg/logger"
)

// BroadcastScheduler is the background control loop that promotes due
// SCHEDULED broadcasts to SENT and purges expired ones.
type BroadcastScheduler struct {
	service  *BroadcastService
	logger   *logger.Logger
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewBroadcastScheduler(service *BroadcastService, l *logger.Logger, interval time.Duration) *BroadcastScheduler {
	if interval < time.Second {
		interval = time.Minute
	}
	return &BroadcastScheduler{
		service:  service,
		logger:   l,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the worker loop
func (w *BroadcastScheduler) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down
func (w *BroadcastScheduler) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *BroadcastScheduler) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.Tick(context.Background())
		}
	}
}

// Tick runs one scheduler pass. Purging happens before promotion so a
// broadcast promoted this tick is never purged in the same tick. A failure
// on one broadcast is logged and does not block the others.
func (w *BroadcastScheduler) Tick(ctx context.Context) {
	now := time.Now()

	purged, err := w.service.PurgeExpired(ctx, now)
	if err != nil {
		if w.logger != nil {
			w.logger.Errorf("scheduler: purge expired broadcasts: %s", err)
		}
	} else if purged > 0 && w.logger != nil {
		w.logger.Infof("scheduler: purged %d expired broadcasts", purged)
	}

	due, err := w.service.FindDue(ctx, now)
	if err != nil {
		if w.logger != nil {
			w.logger.Errorf("scheduler: find due broadcasts: %s", err)
		}
		return
	}

	for _, b := range due {
		sentAt := time.Now()
		if _, err := w.service.UpdateStatus(ctx, b.ID, broadcast.StatusSent, &sentAt); err != nil {
			if w.logger != nil {
				w.logger.Errorf("scheduler: promote broadcast %s: %s", b.ID, err)
			}
			continue
		}
	}
}
