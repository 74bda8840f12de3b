package httpdto

import (
	"time"

	"carelink-messaging/internal/domain/conversation"
)

// CreateGroupRequest is used for POST /conversations/groups
type CreateGroupRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
	Title          string   `json:"title,omitempty"`
}

// ParticipantRequest is used for participant add/remove
type ParticipantRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ConversationDTO represents a conversation in API responses
type ConversationDTO struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	ParticipantIDs []string `json:"participant_ids"`
	LastMessageID  string   `json:"last_message_id,omitempty"`
	LastActivityAt string   `json:"last_activity_at"`
	Archived       bool     `json:"archived"`
	CreatedBy      string   `json:"created_by"`
	CreatedAt      string   `json:"created_at"`
}

func FromConversation(c conversation.Conversation) ConversationDTO {
	dto := ConversationDTO{
		ID:             c.ID.String(),
		Type:           c.Type,
		LastActivityAt: c.LastActivityAt.Format(time.RFC3339),
		Archived:       c.Archived,
		CreatedBy:      c.CreatedBy.String(),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
	if c.Title.Valid {
		dto.Title = c.Title.String
	}
	if c.Description.Valid {
		dto.Description = c.Description.String
	}
	if c.LastMessageID.Valid {
		dto.LastMessageID = c.LastMessageID.UUID.String()
	}
	for _, p := range c.Participants {
		dto.ParticipantIDs = append(dto.ParticipantIDs, p.UserID.String())
	}
	return dto
}

func FromConversations(items []conversation.Conversation) []ConversationDTO {
	dtos := make([]ConversationDTO, 0, len(items))
	for _, c := range items {
		dtos = append(dtos, FromConversation(c))
	}
	return dtos
}
