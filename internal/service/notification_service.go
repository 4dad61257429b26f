package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/deployeval/internal/dto"
	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/observability"
	"github.com/noah-isme/deployeval/internal/repository"
)

// ErrInvalidNotification indicates a payload that failed field validation.
var ErrInvalidNotification = errors.New("invalid notification payload")

// ErrUnknownTask indicates a notification whose email/task/round/nonce
// combination matches no issued task. Such notifications are rejected and
// logged as suspicious; no submission is recorded.
var ErrUnknownTask = errors.New("no issued task matches notification")

// AuditEntry is one received notification kept in the transient audit log.
type AuditEntry struct {
	Timestamp time.Time               `json:"timestamp"`
	Data      dto.NotificationRequest `json:"data"`
}

// NotificationService validates inbound completion reports against the
// issued-task ledger and records accepted submissions.
type NotificationService interface {
	Receive(ctx context.Context, payload dto.NotificationRequest) (dto.NotificationResponse, error)
	// Recent returns the transient audit log, oldest first. The log is
	// observability only: it is bounded, process-local and resets on
	// restart.
	Recent() []AuditEntry
	// Received reports how many notifications were accepted since startup.
	// The count is monotonic: it keeps growing past the audit-log capacity
	// and survives Clear.
	Received() int
	// Clear empties the audit log and returns how many entries were
	// dropped.
	Clear() int
}

type notificationService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	validate    *validator.Validate
	logger      zerolog.Logger

	mu       sync.Mutex
	audit    []AuditEntry
	capacity int
	received int
}

// NewNotificationService builds the notification receiver service. Capacity
// bounds the in-memory audit log; zero or negative means the default 1024.
func NewNotificationService(
	tasks repository.TaskRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	capacity int,
	logger zerolog.Logger,
) NotificationService {
	if capacity <= 0 {
		capacity = 1024
	}

	return &notificationService{
		tasks:       tasks,
		submissions: submissions,
		validate:    validate,
		capacity:    capacity,
		logger:      logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Receive(ctx context.Context, payload dto.NotificationRequest) (dto.NotificationResponse, error) {
	if err := s.validate.Struct(payload); err != nil {
		observability.Notifications().WithLabelValues("invalid").Inc()
		return dto.NotificationResponse{}, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}

	issued, err := s.tasks.List(ctx, repository.TaskFilter{Email: payload.Email, Round: payload.Round})
	if err != nil {
		return dto.NotificationResponse{}, err
	}

	var matched *models.Task
	for i := range issued {
		if issued[i].Task == payload.Task && issued[i].Nonce == payload.Nonce {
			matched = &issued[i]
			break
		}
	}

	if matched == nil {
		observability.Notifications().WithLabelValues("rejected").Inc()
		s.logger.Warn().
			Str("email", payload.Email).
			Str("task", payload.Task).
			Int("round", payload.Round).
			Str("nonce", payload.Nonce).
			Msg("suspicious notification: no matching issued task")
		return dto.NotificationResponse{}, ErrUnknownTask
	}

	notificationID := s.appendAudit(payload)

	if payload.RepoURL != "" {
		submission := models.Submission{
			Timestamp:  time.Now().UTC(),
			Email:      payload.Email,
			TemplateID: matched.TemplateID,
			Task:       payload.Task,
			Round:      payload.Round,
			Nonce:      payload.Nonce,
			RepoURL:    payload.RepoURL,
			CommitSHA:  payload.CommitSHA,
			PagesURL:   payload.PagesURL,
		}
		if err := s.submissions.Put(ctx, submission); err != nil {
			return dto.NotificationResponse{}, fmt.Errorf("record submission: %w", err)
		}
	}

	observability.Notifications().WithLabelValues("accepted").Inc()
	s.logger.Info().
		Str("email", payload.Email).
		Str("task", payload.Task).
		Int("round", payload.Round).
		Str("repo_url", payload.RepoURL).
		Str("pages_url", payload.PagesURL).
		Int("notification_id", notificationID).
		Msg("notification accepted")

	return dto.NotificationResponse{
		Status:         "received",
		NotificationID: notificationID,
		Message:        "Notification processed successfully",
	}, nil
}

func (s *notificationService) appendAudit(payload dto.NotificationRequest) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++
	s.audit = append(s.audit, AuditEntry{Timestamp: time.Now().UTC(), Data: payload})
	if len(s.audit) > s.capacity {
		s.audit = s.audit[len(s.audit)-s.capacity:]
	}

	return s.received
}

func (s *notificationService) Recent() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]AuditEntry, len(s.audit))
	copy(entries, s.audit)
	return entries
}

func (s *notificationService) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.received
}

func (s *notificationService) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.audit)
	s.audit = nil
	return dropped
}
