package handler

import (
	"errors"
	"net/http"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", PrincipalMiddleware())
	{
		router.GET("events", h.GetEvents)
		router.GET("events/:event_id", h.GetEvent)
		router.POST("events", h.CreateEvent)
		router.PUT("events/:event_id/open", h.OpenForRegistration)
	}
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		h.handleEventError(c, err, "GetEvents")
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		h.handleEventError(c, apperrors.ErrInvalidInput, "GetEvent")
		return
	}

	event, err := h.service.GetByEventID(c, eventID)
	if err != nil {
		h.handleEventError(c, err, "GetEvent")
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	if role := CurrentRole(c); role != model.RoleOrganizer && role != model.RoleAdmin {
		h.handleEventError(c, apperrors.ErrNotAuthorized, "CreateEvent")
		return
	}

	var event model.Event
	if err := BindJson(c, &event); err != nil {
		return
	}
	event.OrganizerID = CurrentUserID(c)

	created, err := h.service.Create(c, &event)
	if err != nil {
		h.handleEventError(c, err, "CreateEvent")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// OpenForRegistration 開放報名前預熱名額快取，讓尖峰流量先打在 Redis 上
func (h *EventHandler) OpenForRegistration(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		h.handleEventError(c, apperrors.ErrInvalidInput, "OpenForRegistration")
		return
	}

	if role := CurrentRole(c); role != model.RoleOrganizer && role != model.RoleAdmin {
		h.handleEventError(c, apperrors.ErrNotAuthorized, "OpenForRegistration")
		return
	}

	if err := h.service.OpenForRegistration(c, eventID); err != nil {
		h.handleEventError(c, err, "OpenForRegistration")
		return
	}

	c.Status(http.StatusOK)
}

func (h *EventHandler) handleEventError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrNotAuthorized):
		log.Warn("Not authorized")
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not authorized",
		})
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Event not found",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
