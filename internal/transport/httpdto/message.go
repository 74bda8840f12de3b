package httpdto

import (
	"time"

	"carelink-messaging/internal/domain/message"
)

// SendMessageRequest is used for POST /messages
type SendMessageRequest struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	RecipientIDs   []string `json:"recipient_ids" binding:"required"`
	Subject        string   `json:"subject,omitempty"`
	Content        string   `json:"content" binding:"required"`
	Type           string   `json:"type,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	Attachments    string   `json:"attachments,omitempty"`
	Metadata       string   `json:"metadata,omitempty"`
}

// SetMessageStatusRequest is used for PATCH /messages/:id/status
type SetMessageStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReadReceiptDTO is a (user, read time) pair
type ReadReceiptDTO struct {
	UserID string `json:"user_id"`
	ReadAt string `json:"read_at"`
}

// MessageDTO represents a message in API responses
type MessageDTO struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	SenderID       string           `json:"sender_id"`
	RecipientIDs   []string         `json:"recipient_ids"`
	Subject        string           `json:"subject,omitempty"`
	Content        string           `json:"content"`
	Type           string           `json:"type"`
	Priority       string           `json:"priority"`
	Status         string           `json:"status"`
	Encrypted      bool             `json:"encrypted"`
	ReadBy         []ReadReceiptDTO `json:"read_by"`
	Attachments    string           `json:"attachments,omitempty"`
	Metadata       string           `json:"metadata,omitempty"`
	CreatedAt      string           `json:"created_at"`
}

func FromMessage(m message.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		Type:           m.Type,
		Priority:       m.Priority,
		Status:         m.Status,
		Encrypted:      m.Encrypted,
		Attachments:    m.Attachments,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if m.Subject.Valid {
		dto.Subject = m.Subject.String
	}
	for _, r := range m.Recipients {
		dto.RecipientIDs = append(dto.RecipientIDs, r.UserID.String())
	}
	for _, r := range m.Receipts {
		dto.ReadBy = append(dto.ReadBy, ReadReceiptDTO{
			UserID: r.UserID.String(),
			ReadAt: r.ReadAt.Format(time.RFC3339),
		})
	}
	return dto
}

func FromMessages(items []message.Message) []MessageDTO {
	dtos := make([]MessageDTO, 0, len(items))
	for _, m := range items {
		dtos = append(dtos, FromMessage(m))
	}
	return dtos
}
