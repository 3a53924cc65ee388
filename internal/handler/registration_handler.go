package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	EventID              uuid.UUID                   `json:"event_id" binding:"required"`
	MerchandiseSelection *model.MerchandiseSelection `json:"merchandise_selection,omitempty"`
	CustomFieldResponses []model.FieldResponse       `json:"custom_field_responses,omitempty"`
}

type RegistrationHandler struct {
	service service.RegistrationService
}

func NewRegistrationHandler(service service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

func (h *RegistrationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", PrincipalMiddleware())
	{
		router.POST("registrations", h.Register)
		router.GET("registrations/:id", h.GetRegistration)
		router.PUT("registrations/:id/cancel", h.CancelRegistration)
	}
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Register(c, CurrentUserID(c), req.EventID, req.MerchandiseSelection, req.CustomFieldResponses)
	if err != nil {
		h.handleRegistrationError(c, err, "Register")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleRegistrationError(c, apperrors.ErrInvalidInput, "GetRegistration")
		return
	}

	p, err := h.service.GetByID(c, idInt)
	if err != nil {
		h.handleRegistrationError(c, err, "GetRegistration")
		return
	}

	// 報名紀錄只有本人與管理員可見
	if p.ParticipantID != CurrentUserID(c) && CurrentRole(c) != model.RoleAdmin {
		h.handleRegistrationError(c, apperrors.ErrNotAuthorized, "GetRegistration")
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *RegistrationHandler) CancelRegistration(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleRegistrationError(c, apperrors.ErrInvalidInput, "CancelRegistration")
		return
	}

	if err := h.service.Cancel(c, idInt, CurrentUserID(c)); err != nil {
		h.handleRegistrationError(c, err, "CancelRegistration")
		return
	}

	c.Status(http.StatusOK)
}

func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrDeadlinePassed):
		log.Warn("Deadline passed")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Registration deadline has passed",
		})
	case errors.Is(err, apperrors.ErrNotEligible):
		log.Warn("Not eligible")
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not eligible for this event",
		})
	case errors.Is(err, apperrors.ErrInvalidSelection), apperrors.IsMissingField(err):
		log.Warn("Invalid selection")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, apperrors.ErrLimitReached):
		log.Warn("Limit reached")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Registration limit reached",
		})
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		log.Warn("Already registered")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Already registered for this event",
		})
	case errors.Is(err, apperrors.ErrEventStarted):
		log.Warn("Event already started")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Event has already started",
		})
	case errors.Is(err, apperrors.ErrAlreadyCancelled):
		log.Warn("Already cancelled")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Registration already cancelled",
		})
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
	case errors.Is(err, apperrors.ErrUserNotFound):
		log.Warn("User not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
	case errors.Is(err, apperrors.ErrParticipationNotFound):
		log.Warn("Participation not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Registration not found",
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
