package httpdto

import (
	"time"

	"carelink-messaging/internal/domain/broadcast"
)

// CreateBroadcastRequest is used for POST /broadcasts
type CreateBroadcastRequest struct {
	Title              string   `json:"title" binding:"required"`
	Content            string   `json:"content" binding:"required"`
	TargetAudience     string   `json:"target_audience" binding:"required"`
	SpecificRecipients []string `json:"specific_recipients,omitempty"`
	MessageType        string   `json:"message_type,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	ScheduledAt        string   `json:"scheduled_at,omitempty"`
	ExpiresAt          string   `json:"expires_at,omitempty"`
	Attachments        string   `json:"attachments,omitempty"`
	Metadata           string   `json:"metadata,omitempty"`
}

// SetBroadcastStatusRequest is used for PATCH /broadcasts/:id/status
type SetBroadcastStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DeliveryStatsDTO carries the per-broadcast delivery counters
type DeliveryStatsDTO struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Read      int `json:"read"`
}

// BroadcastDTO represents a broadcast in API responses
type BroadcastDTO struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Content            string           `json:"content"`
	SenderID           string           `json:"sender_id"`
	TargetAudience     string           `json:"target_audience"`
	SpecificRecipients []string         `json:"specific_recipients,omitempty"`
	MessageType        string           `json:"message_type"`
	Priority           string           `json:"priority"`
	Status             string           `json:"status"`
	ScheduledAt        string           `json:"scheduled_at,omitempty"`
	SentAt             string           `json:"sent_at,omitempty"`
	ExpiresAt          string           `json:"expires_at,omitempty"`
	DeliveryStats      DeliveryStatsDTO `json:"delivery_stats"`
	ReadBy             []ReadReceiptDTO `json:"read_by"`
	Attachments        string           `json:"attachments,omitempty"`
	Metadata           string           `json:"metadata,omitempty"`
	CreatedAt          string           `json:"created_at"`
}

func FromBroadcast(b broadcast.BroadcastMessage) BroadcastDTO {
	dto := BroadcastDTO{
		ID:             b.ID.String(),
		Title:          b.Title,
		Content:        b.Content,
		SenderID:       b.SenderID.String(),
		TargetAudience: b.TargetAudience,
		MessageType:    b.MessageType,
		Priority:       b.Priority,
		Status:         b.Status,
		DeliveryStats: DeliveryStatsDTO{
			Sent:      b.StatsSent,
			Delivered: b.StatsDelivered,
			Read:      b.StatsRead,
		},
		Attachments: b.Attachments,
		Metadata:    b.Metadata,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	if b.ScheduledAt.Valid {
		dto.ScheduledAt = b.ScheduledAt.Time.Format(time.RFC3339)
	}
	if b.SentAt.Valid {
		dto.SentAt = b.SentAt.Time.Format(time.RFC3339)
	}
	if b.ExpiresAt.Valid {
		dto.ExpiresAt = b.ExpiresAt.Time.Format(time.RFC3339)
	}
	for _, r := range b.Recipients {
		dto.SpecificRecipients = append(dto.SpecificRecipients, r.UserID.String())
	}
	for _, r := range b.ReadBy {
		dto.ReadBy = append(dto.ReadBy, ReadReceiptDTO{
			UserID: r.UserID.String(),
			ReadAt: r.ReadAt.Format(time.RFC3339),
		})
	}
	return dto
}

func FromBroadcasts(items []broadcast.BroadcastMessage) []BroadcastDTO {
	dtos := make([]BroadcastDTO, 0, len(items))
	for _, b := range items {
		dtos = append(dtos, FromBroadcast(b))
	}
	return dtos
}
