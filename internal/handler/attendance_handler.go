package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScanRequest struct {
	Credential string `json:"credential" binding:"required"`
}

type ManualCheckInRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type AttendanceHandler struct {
	checkinService    service.CheckinService
	attendanceService service.AttendanceService
}

func NewAttendanceHandler(
	checkinService service.CheckinService,
	attendanceService service.AttendanceService,
) *AttendanceHandler {
	return &AttendanceHandler{
		checkinService:    checkinService,
		attendanceService: attendanceService,
	}
}

func (h *AttendanceHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", PrincipalMiddleware())
	{
		router.POST("events/:event_id/scan", h.Scan)
		router.PUT("registrations/:id/manual-checkin", h.ManualCheckIn)
		router.GET("events/:event_id/attendance", h.Dashboard)
		router.GET("events/:event_id/attendance/export", h.ExportCSV)
	}
}

func (h *AttendanceHandler) Scan(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		h.handleAttendanceError(c, apperrors.ErrInvalidInput, "Scan")
		return
	}

	var req ScanRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.checkinService.Scan(c, req.Credential, eventID, CurrentUserID(c))
	if err != nil {
		// 重複掃描要帶回首次報到紀錄，掃描器端才能顯示給工作人員
		if errors.Is(err, apperrors.ErrAlreadyScanned) && result != nil {
			logger.WithComponent("handler").Warn("Already scanned",
				zap.String("operation", "Scan"), zap.Error(err))
			c.JSON(http.StatusConflict, result)
			return
		}
		h.handleAttendanceError(c, err, "Scan")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AttendanceHandler) ManualCheckIn(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleAttendanceError(c, apperrors.ErrInvalidInput, "ManualCheckIn")
		return
	}

	var req ManualCheckInRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	p, err := h.checkinService.ManualCheckIn(c, idInt, req.Reason, CurrentUserID(c))
	if err != nil {
		h.handleAttendanceError(c, err, "ManualCheckIn")
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		h.handleAttendanceError(c, apperrors.ErrInvalidInput, "Dashboard")
		return
	}

	resp, err := h.attendanceService.Dashboard(c, eventID, CurrentUserID(c))
	if err != nil {
		h.handleAttendanceError(c, err, "Dashboard")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AttendanceHandler) ExportCSV(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		h.handleAttendanceError(c, apperrors.ErrInvalidInput, "ExportCSV")
		return
	}

	data, err := h.attendanceService.ExportCSV(c, eventID, CurrentUserID(c))
	if err != nil {
		h.handleAttendanceError(c, err, "ExportCSV")
		return
	}

	filename := fmt.Sprintf("attendance-%s.csv", eventID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrCredentialFormat):
		log.Warn("Invalid credential format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid credential format",
		})
	case errors.Is(err, apperrors.ErrCredentialInvalid):
		log.Warn("Credential verification failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Credential verification failed",
		})
	case errors.Is(err, apperrors.ErrTicketWrongEvent):
		log.Warn("Ticket not valid for this event")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Ticket not valid for this event",
		})
	case errors.Is(err, apperrors.ErrCredentialMismatch):
		log.Warn("Credential mismatch")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Credential does not match ticket holder",
		})
	case errors.Is(err, apperrors.ErrTicketCancelled):
		log.Warn("Ticket cancelled")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Ticket has been cancelled",
		})
	case errors.Is(err, apperrors.ErrPaymentPending):
		log.Warn("Payment pending")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Payment approval is pending",
		})
	case errors.Is(err, apperrors.ErrAlreadyScanned):
		log.Warn("Already scanned")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Ticket already scanned",
		})
	case errors.Is(err, apperrors.ErrReasonTooShort):
		log.Warn("Override reason too short")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Override reason must be at least 10 characters",
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
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Ticket not found",
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
