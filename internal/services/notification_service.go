package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// TypeNotificationDeliver is the asynq task type for notification delivery
const TypeNotificationDeliver = "notification:deliver"

// NotificationDeliverPayload is the asynq payload for notification delivery
type NotificationDeliverPayload struct {
	NotificationID int `json:"notification_id"`
}

// NotificationRepository is the interface that wraps methods for notifications table data access
type NotificationRepository interface {
	// Method Create inserts a new notification.
	Create(ctx context.Context, notification *models.Notification) error
	// Method ListForUser retrieves the user's notifications, newest first.
	ListForUser(ctx context.Context, userID int, after time.Time) ([]models.Notification, error)
	// Method MarkRead marks the user's listed notifications as read and returns
	// the number of rows updated.
	MarkRead(ctx context.Context, userID int, ids []int) (int, error)
}

// notificationService persists notifications and queues their delivery.
// Delivery transport is the worker's concern; the decision of who gets
// notified about what is made here by the callers.
type notificationService struct {
	repo        NotificationRepository
	asynqClient *asynq.Client
	logger      *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo NotificationRepository, asynqClient *asynq.Client, logger *zap.Logger) *notificationService {
	return &notificationService{
		repo:        repo,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

// Notify persists a notification for the user and enqueues its delivery.
// A queue failure does not roll the notification back: the row is the record,
// delivery is best-effort and logged.
func (s *notificationService) Notify(ctx context.Context, userID, taskID int, notificationType, message string) error {
	notification := &models.Notification{
		UserID:  userID,
		TaskID:  taskID,
		Type:    notificationType,
		Message: message,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	payload, err := json.Marshal(NotificationDeliverPayload{NotificationID: notification.ID})
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	task := asynq.NewTask(TypeNotificationDeliver, payload)
	if _, err := s.asynqClient.EnqueueContext(ctx, task); err != nil {
		s.logger.Warn("failed to enqueue notification delivery",
			zap.Error(err), zap.Int("notificationId", notification.ID))
	}

	return nil
}

// List retrieves the caller's notifications created after the given time,
// newest first, one page at a time
func (s *notificationService) List(ctx context.Context, userID int, after time.Time) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, after)
}

// MarkRead marks the caller's listed notifications as read
func (s *notificationService) MarkRead(ctx context.Context, userID int, ids []int) (int, error) {
	return s.repo.MarkRead(ctx, userID, ids)
}
