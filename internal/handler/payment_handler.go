package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateOrderRequest struct {
	EventID  uuid.UUID `json:"event_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required"`
}

type UploadProofRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	ProofImage    string `json:"proof_image" binding:"required"`
}

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1", PrincipalMiddleware())
	{
		router.POST("orders", h.CreateOrder)
		router.POST("orders/:id/proof", h.UploadProof)
		router.PUT("payments/:id/approve", h.ApprovePayment)
		router.PUT("payments/:id/reject", h.RejectPayment)
	}
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	order, err := h.service.CreateOrder(c, CurrentUserID(c), req.EventID, req.Quantity)
	if err != nil {
		h.handlePaymentError(c, err, "CreateOrder")
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *PaymentHandler) UploadProof(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handlePaymentError(c, apperrors.ErrInvalidInput, "UploadProof")
		return
	}

	var req UploadProofRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	payment, err := h.service.UploadProof(c, idInt, CurrentUserID(c), req.PaymentMethod, req.ProofImage)
	if err != nil {
		h.handlePaymentError(c, err, "UploadProof")
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) ApprovePayment(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handlePaymentError(c, apperrors.ErrInvalidInput, "ApprovePayment")
		return
	}

	if err := h.service.Approve(c, idInt, CurrentUserID(c)); err != nil {
		h.handlePaymentError(c, err, "ApprovePayment")
		return
	}

	c.Status(http.StatusOK)
}

func (h *PaymentHandler) RejectPayment(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handlePaymentError(c, apperrors.ErrInvalidInput, "RejectPayment")
		return
	}

	var req RejectPaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.Reject(c, idInt, CurrentUserID(c), req.Reason); err != nil {
		h.handlePaymentError(c, err, "RejectPayment")
		return
	}

	c.Status(http.StatusOK)
}

func (h *PaymentHandler) handlePaymentError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrExceedsMaxPerUser):
		log.Warn("Exceeds max per user")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Exceeds max per user",
		})
	case errors.Is(err, apperrors.ErrPaymentNotRequired):
		log.Warn("Payment not required")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Payment not required for this registration",
		})
	case errors.Is(err, apperrors.ErrPaymentAlreadyProcessed):
		log.Warn("Payment already processed")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Payment already processed",
		})
	case errors.Is(err, apperrors.ErrOrderAlreadyProcessed):
		log.Warn("Order already processed")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Order already processed",
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
	case errors.Is(err, apperrors.ErrOrderNotFound):
		log.Warn("Order not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
	case errors.Is(err, apperrors.ErrPaymentNotFound):
		log.Warn("Payment not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Payment not found",
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
