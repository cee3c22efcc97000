package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"github.com/projectboard/backend/internal/services"
)

// NotificationRepository defines the interface for notification lookup
type NotificationRepository interface {
	// GetByID retrieves a notification by its ID
	//
	// "id" parameter is used to retrieve a notification by its ID.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Notification, error)
}

// UserRepository defines the interface for user lookup
type UserRepository interface {
	// GetByID retrieves a user by their ID
	//
	// "id" parameter is used to retrieve a user by their ID.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// Worker delivers queued notifications over email
type Worker struct {
	logger           *zap.Logger
	notificationRepo NotificationRepository
	userRepo         UserRepository
	smtpHost         string
	smtpPort         int
	smtpUsername     string
	smtpPassword     string
	smtpFrom         string
}

// NewWorker creates a new worker instance
func NewWorker(
	logger *zap.Logger,
	notificationRepo NotificationRepository,
	userRepo UserRepository,
	smtpHost string,
	smtpPort int,
	smtpUsername, smtpPassword, smtpFrom string,
) *Worker {
	return &Worker{
		logger:           logger,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		smtpHost:         smtpHost,
		smtpPort:         smtpPort,
		smtpUsername:     smtpUsername,
		smtpPassword:     smtpPassword,
		smtpFrom:         smtpFrom,
	}
}

// HandleNotificationDeliver handles notification delivery jobs
func (w *Worker) HandleNotificationDeliver(ctx context.Context, t *asynq.Task) error {
	var payload services.NotificationDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse notification payload: %w", err)
	}

	notification, err := w.notificationRepo.GetByID(ctx, payload.NotificationID)
	if err != nil {
		// Notification was deleted before processing, nothing to deliver
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	user, err := w.userRepo.GetByID(ctx, notification.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	subject := subjectFor(notification.Type)
	if err := w.sendEmail(user.Email, subject, notification.Message); err != nil {
		return err
	}

	w.logger.Info("Notification delivered",
		zap.Int("notification_id", notification.ID),
		zap.Int("user_id", user.ID),
	)
	return nil
}

// subjectFor maps a notification type to an email subject line
func subjectFor(notificationType string) string {
	switch notificationType {
	case models.NotificationTaskUpdate:
		return "A task assigned to you was updated"
	case models.NotificationTaskDelete:
		return "A task assigned to you was deleted"
	default:
		return "You have a new notification"
	}
}

// sendEmail sends an email using gopkg.in/mail.v2
func (w *Worker) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", w.smtpFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(w.smtpHost, w.smtpPort, w.smtpUsername, w.smtpPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
