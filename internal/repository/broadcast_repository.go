package repository

import (
	"context"
	"errors"
	"time"

	"carelink-messaging/internal/domain/broadcast"
	carelink_errors "carelink-messaging/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresBroadcastRepository struct {
	db *gorm.DB
}

func NewBroadcastRepository(db *gorm.DB) BroadcastRepository {
	return &PostgresBroadcastRepository{db: db}
}

// Create inserts the broadcast together with its specific-recipient rows.
func (r *PostgresBroadcastRepository) Create(ctx context.Context, b *broadcast.BroadcastMessage) error {
	res := r.db.WithContext(ctx).Create(b)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return carelink_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresBroadcastRepository) GetByID(ctx context.Context, id uuid.UUID) (broadcast.BroadcastMessage, error) {
	var b broadcast.BroadcastMessage
	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Preload("ReadBy").
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return broadcast.BroadcastMessage{}, carelink_errors.ErrNotFound
		}
		return broadcast.BroadcastMessage{}, err
	}
	return b, nil
}

func (r *PostgresBroadcastRepository) Update(ctx context.Context, b broadcast.BroadcastMessage) error {
	res := r.db.WithContext(ctx).Omit("Recipients", "ReadBy").Save(&b)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carelink_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresBroadcastRepository) CreateReceipt(ctx context.Context, receipt *broadcast.BroadcastReceipt) error {
	res := r.db.WithContext(ctx).Create(receipt)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return carelink_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresBroadcastRepository) CountReceipts(ctx context.Context, broadcastID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&broadcast.BroadcastReceipt{}).
		Where("broadcast_id = ?", broadcastID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresBroadcastRepository) UpdateDeliveryStats(ctx context.Context, id uuid.UUID, stats map[string]interface{}) error {
	if len(stats) == 0 {
		return nil
	}
	stats["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&broadcast.BroadcastMessage{}).
		Where("id = ?", id).
		Updates(stats)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return carelink_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresBroadcastRepository) FindDue(ctx context.Context, now time.Time) ([]broadcast.BroadcastMessage, error) {
	var due []broadcast.BroadcastMessage
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", broadcast.StatusScheduled, now).
		Order("scheduled_at ASC").
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

// PurgeExpired deletes SENT broadcasts whose expiry is strictly in the past,
// together with their recipient and receipt rows.
func (r *PostgresBroadcastRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&broadcast.BroadcastMessage{}).
			Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", broadcast.StatusSent, now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Delete(&broadcast.BroadcastReceipt{}, "broadcast_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&broadcast.BroadcastRecipient{}, "broadcast_id IN ?", ids).Error; err != nil {
			return err
		}
		res := tx.Delete(&broadcast.BroadcastMessage{}, "id IN ?", ids)
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// FindByAudience returns broadcasts visible to a requester: a matching
// audience tag, ALL, or SPECIFIC targeting that includes the requester.
// Unless allStatuses is set, only SENT and unexpired broadcasts are returned.
func (r *PostgresBroadcastRepository) FindByAudience(ctx context.Context, tag string, userID uuid.UUID, page, limit int, allStatuses bool, now time.Time) ([]broadcast.BroadcastMessage, int64, error) {
	var broadcasts []broadcast.BroadcastMessage
	var total int64

	subQuery := r.db.Model(&broadcast.BroadcastRecipient{}).
		Select("broadcast_id").
		Where("user_id = ?", userID)

	q := r.db.WithContext(ctx).
		Model(&broadcast.BroadcastMessage{}).
		Where(
			r.db.Where("target_audience IN ?", []string{tag, broadcast.AudienceAll}).
				Or("target_audience = ? AND id IN (?)", broadcast.AudienceSpecific, subQuery),
		)

	if !allStatuses {
		q = q.Where("status = ?", broadcast.StatusSent).
			Where("expires_at IS NULL OR expires_at > ?", now)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	if err := q.
		Preload("Recipients").
		Preload("ReadBy").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(normalizeLimit(limit)).
		Find(&broadcasts).Error; err != nil {
		return nil, 0, err
	}

	return broadcasts, total, nil
}
