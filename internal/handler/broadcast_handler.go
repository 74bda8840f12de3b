package handler

import (
	"net/http"
	"time"

	"carelink-messaging/internal/services"
	"carelink-messaging/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type BroadcastHandler struct {
	service *services.BroadcastService
}

func NewBroadcastHandler(service *services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{service: service}
}

func (h *BroadcastHandler) Create(c *gin.Context) {
	var req httpdto.CreateBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	recipients, err := parseUUIDs(req.SpecificRecipients)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid specific_recipients", "INVALID_REQUEST"))
		return
	}

	input := services.CreateBroadcastInput{
		SenderID:           principal.UserID,
		SenderRole:         principal.Role,
		Title:              req.Title,
		Content:            req.Content,
		TargetAudience:     req.TargetAudience,
		SpecificRecipients: recipients,
		MessageType:        req.MessageType,
		Priority:           req.Priority,
		Attachments:        req.Attachments,
		Metadata:           req.Metadata,
	}
	if req.ScheduledAt != "" {
		at, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid scheduled_at", "INVALID_REQUEST"))
			return
		}
		input.ScheduledAt = &at
	}
	if req.ExpiresAt != "" {
		at, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid expires_at", "INVALID_REQUEST"))
			return
		}
		input.ExpiresAt = &at
	}

	b, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromBroadcast(b)))
}

func (h *BroadcastHandler) List(c *gin.Context) {
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	page := parseIntDefault(c.Query("page"), 1)
	limit := parseIntDefault(c.Query("limit"), 20)
	allStatuses := c.Query("all_statuses") == "true"

	items, total, err := h.service.ListFor(c.Request.Context(), principal.UserID, principal.Role, page, limit, allStatuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"broadcasts": httpdto.FromBroadcasts(items),
		"total":      total,
	}))
}

func (h *BroadcastHandler) SetStatus(c *gin.Context) {
	broadcastID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid broadcast id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.SetBroadcastStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	b, err := h.service.Get(c.Request.Context(), broadcastID)
	if err != nil {
		respondError(c, err)
		return
	}
	if b.SenderID != principal.UserID {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), broadcastID, req.Status, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromBroadcast(updated)))
}

func (h *BroadcastHandler) MarkRead(c *gin.Context) {
	broadcastID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid broadcast id", "INVALID_REQUEST"))
		return
	}
	principal, ok := services.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), broadcastID, principal.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
