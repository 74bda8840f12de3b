package handler

import (
	"context"
	"net/http"

	"carelink-messaging/internal/services"
	"carelink-messaging/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
}

func NewConversationHandler(conversations *services.ConversationService, messages *services.MessageService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages}
}

func (h *ConversationHandler) List(c *gin.Context) {
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	page := parseIntDefault(c.Query("page"), 1)
	limit := parseIntDefault(c.Query("limit"), 20)

	items, total, err := h.conversations.ListForUser(c.Request.Context(), principal.UserID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"conversations": httpdto.FromConversations(items),
		"total":         total,
	}))
}

// Get returns the conversation together with its recent messages.
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	limit := parseIntDefault(c.Query("limit"), 50)
	skip := parseIntDefault(c.Query("skip"), 0)

	conv, err := h.conversations.GetForUser(c.Request.Context(), conversationID, principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	msgs, err := h.messages.ListForConversation(c.Request.Context(), conversationID, principal.UserID, limit, skip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"conversation": httpdto.FromConversation(conv),
		"messages":     httpdto.FromMessages(msgs),
	}))
}

func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req httpdto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	participantIDs, err := parseUUIDs(req.ParticipantIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid participant_ids", "INVALID_REQUEST"))
		return
	}
	conv, err := h.conversations.CreateGroup(c.Request.Context(), principal.UserID, participantIDs, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *ConversationHandler) AddParticipant(c *gin.Context) {
	h.participantOp(c, h.conversations.AddParticipant)
}

func (h *ConversationHandler) RemoveParticipant(c *gin.Context) {
	h.participantOp(c, h.conversations.RemoveParticipant)
}

func (h *ConversationHandler) Archive(c *gin.Context) {
	h.archiveOp(c, h.conversations.Archive)
}

func (h *ConversationHandler) Unarchive(c *gin.Context) {
	h.archiveOp(c, h.conversations.Unarchive)
}

func (h *ConversationHandler) participantOp(c *gin.Context, op func(ctx context.Context, conversationID, userID uuid.UUID) error) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, err := parseUUID(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user_id", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if _, err := h.conversations.GetForUser(c.Request.Context(), conversationID, principal.UserID); err != nil {
		respondError(c, err)
		return
	}
	if err := op(c.Request.Context(), conversationID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ConversationHandler) archiveOp(c *gin.Context, op func(ctx context.Context, conversationID uuid.UUID) error) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if _, err := h.conversations.GetForUser(c.Request.Context(), conversationID, principal.UserID); err != nil {
		respondError(c, err)
		return
	}
	if err := op(c.Request.Context(), conversationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
