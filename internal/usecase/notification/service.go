package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/logger"
	appErrors "ambulance-tracker/pkg/errors"
	"ambulance-tracker/pkg/utils"
)

// Broadcaster announces queued notifications to all connected viewers.
// The target device itself learns of them only by polling.
type Broadcaster interface {
	BroadcastNotification(deviceID string, n domain.Notification)
}

// Service implements the notification-queue use cases.
type Service struct {
	queue       domain.NotificationQueue
	broadcaster Broadcaster
}

// NewService creates a notification service over the given queue.
func NewService(queue domain.NotificationQueue, broadcaster Broadcaster) *Service {
	return &Service{
		queue:       queue,
		broadcaster: broadcaster,
	}
}

// Send validates, enqueues and broadcasts a notification.
func (s *Service) Send(ctx context.Context, req *SendRequest) (domain.Notification, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return domain.Notification{}, appErrors.NewAppError("VALIDATION_ERROR", "Invalid notification request", err)
	}

	n := domain.NewNotification(req.Message, req.Type, time.Now())
	s.queue.Enqueue(req.TargetID, n)

	logger.Info("Notification queued",
		zap.String("target_id", req.TargetID),
		zap.String("notification_id", n.ID),
		zap.String("type", n.Type),
	)

	s.broadcaster.BroadcastNotification(req.TargetID, n)

	return n, nil
}

// Poll returns the head notification for a device without removing it, so
// a polling device can re-check before acknowledging.
func (s *Service) Poll(ctx context.Context, targetID string) (domain.Notification, bool, error) {
	if targetID == "" {
		return domain.Notification{}, false, appErrors.NewAppError("VALIDATION_ERROR", "Missing target id", appErrors.ErrInvalidInput)
	}

	n, ok := s.queue.PeekFirst(targetID)
	return n, ok, nil
}

// Acknowledge removes the head notification. domain.ErrNoNotifications
// tells the caller to stop polling, not retry.
func (s *Service) Acknowledge(ctx context.Context, targetID string) error {
	if targetID == "" {
		return appErrors.NewAppError("VALIDATION_ERROR", "Missing target id", appErrors.ErrInvalidInput)
	}

	if err := s.queue.AcknowledgeFirst(targetID); err != nil {
		return err
	}

	logger.Debug("Notification acknowledged",
		zap.String("target_id", targetID),
	)

	return nil
}
