package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/logger"
	notificationUC "ambulance-tracker/internal/usecase/notification"
	appErrors "ambulance-tracker/pkg/errors"
)

// NotificationHandler exposes the per-device notification queue to polling
// devices and dispatch tools.
type NotificationHandler struct {
	service *notificationUC.Service
}

func NewNotificationHandler(service *notificationUC.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/api/send-notification", h.SendNotification)
	router.GET("/api/notifications", h.PollNotification)
	router.GET("/api/notifications/acknowledge", h.AcknowledgeNotification)
}

// SendNotification queues a message for a device and broadcasts it to all
// viewers.
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	req := &notificationUC.SendRequest{
		TargetID: c.Query("target_id"),
		Message:  c.Query("message"),
		Type:     c.Query("type"),
	}

	if req.TargetID == "" || req.Message == "" {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if _, err := h.service.Send(c.Request.Context(), req); err != nil {
		if isValidationError(err) {
			c.String(http.StatusBadRequest, "Invalid notification request")
			return
		}
		logger.Error("Failed to send notification",
			zap.String("target_id", req.TargetID),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Internal error")
		return
	}

	c.String(http.StatusOK, "Notification sent")
}

// PollNotification returns the head of the device's queue without removing
// it. Polling devices re-check before acknowledging.
func (h *NotificationHandler) PollNotification(c *gin.Context) {
	targetID := c.Query("target_id")
	if targetID == "" {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	n, ok, err := h.service.Poll(c.Request.Context(), targetID)
	if err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if !ok {
		c.String(http.StatusOK, "No notifications")
		return
	}

	c.String(http.StatusOK, "NOTIFICATION:"+n.Message)
}

// AcknowledgeNotification removes the head of the device's queue. A 400
// tells the device to stop polling.
func (h *NotificationHandler) AcknowledgeNotification(c *gin.Context) {
	targetID := c.Query("target_id")
	if targetID == "" {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if err := h.service.Acknowledge(c.Request.Context(), targetID); err != nil {
		if errors.Is(err, domain.ErrNoNotifications) {
			c.String(http.StatusBadRequest, "No notification to acknowledge")
			return
		}
		if isValidationError(err) {
			c.String(http.StatusBadRequest, "Missing required parameters")
			return
		}
		logger.Error("Failed to acknowledge notification",
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Internal error")
		return
	}

	c.String(http.StatusOK, "Notification acknowledged")
}

// isValidationError reports whether err carries the validation error code.
func isValidationError(err error) bool {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == "VALIDATION_ERROR"
	}
	return false
}
