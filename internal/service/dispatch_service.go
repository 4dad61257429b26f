package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/deployeval/internal/catalog"
	"github.com/noah-isme/deployeval/internal/dto"
	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/observability"
	"github.com/noah-isme/deployeval/internal/repository"
)

// DispatchOutcome reports what happened to one dispatch attempt.
type DispatchOutcome struct {
	Skipped    bool
	Task       string
	StatusCode int
}

// DispatchService materialises task instances and delivers them to
// participant endpoints, recording every attempt in the ledger.
type DispatchService interface {
	// Dispatch issues one task. The idempotency gate skips participants who
	// already received a successful dispatch for the round: round 1 checks
	// for any delivered task, later rounds for a delivered task of the same
	// template. A non-2xx earlier attempt does not gate; retries happen by
	// re-running the dispatcher.
	Dispatch(ctx context.Context, participant models.Participant, templateID string, round int, evaluationURL string) (DispatchOutcome, error)
}

type dispatchService struct {
	catalog *catalog.Catalog
	tasks   repository.TaskRepository
	client  *http.Client
	logger  zerolog.Logger
}

// NewDispatchService builds the task dispatcher. Timeout bounds each
// participant request independently.
func NewDispatchService(
	cat *catalog.Catalog,
	tasks repository.TaskRepository,
	timeout time.Duration,
	logger zerolog.Logger,
) DispatchService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &dispatchService{
		catalog: cat,
		tasks:   tasks,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "dispatch_service").Logger(),
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, participant models.Participant, templateID string, round int, evaluationURL string) (DispatchOutcome, error) {
	gatePrefix := ""
	if round >= 2 {
		gatePrefix = templateID
	}

	delivered, err := s.tasks.Exists(ctx, participant.Email, gatePrefix, round)
	if err != nil {
		return DispatchOutcome{}, err
	}
	if delivered {
		s.logger.Info().
			Str("email", participant.Email).
			Int("round", round).
			Msg("task already delivered for round, skipping")
		return DispatchOutcome{Skipped: true}, nil
	}

	instance, err := s.catalog.Materialize(templateID, participant.Email, round, evaluationURL, "")
	if err != nil {
		s.notifyFailure(ctx, evaluationURL, participant.Email, round, err)
		return DispatchOutcome{}, fmt.Errorf("materialize task: %w", err)
	}

	payload := dto.NewDispatchRequest(instance, participant.Secret)
	statusCode := s.post(ctx, participant.Endpoint, payload)

	attachmentsJSON, _ := json.Marshal(instance.Attachments)
	checksJSON, _ := json.Marshal(instance.Checks)

	task := models.Task{
		Timestamp:     time.Now().UTC(),
		Email:         participant.Email,
		TemplateID:    instance.TemplateID,
		Task:          instance.Task,
		Round:         round,
		Nonce:         instance.Nonce,
		Seed:          instance.Seed,
		Brief:         instance.Brief,
		Attachments:   datatypes.JSON(attachmentsJSON),
		Checks:        datatypes.JSON(checksJSON),
		EvaluationURL: evaluationURL,
		Endpoint:      participant.Endpoint,
		StatusCode:    statusCode,
		Secret:        participant.Secret,
	}

	// The attempt is recorded whether or not delivery succeeded.
	if err := s.tasks.Put(ctx, task); err != nil {
		return DispatchOutcome{}, fmt.Errorf("record task: %w", err)
	}

	outcome := "delivered"
	if statusCode != http.StatusOK {
		outcome = "failed"
	}
	observability.DispatchAttempts().WithLabelValues(strconv.Itoa(round), outcome).Inc()

	s.logger.Info().
		Str("email", participant.Email).
		Str("task", instance.Task).
		Int("round", round).
		Str("seed", instance.Seed).
		Int("status_code", statusCode).
		Msg("task dispatched")

	return DispatchOutcome{Task: instance.Task, StatusCode: statusCode}, nil
}

// post delivers the payload and returns the HTTP status, or zero on a
// transport failure.
func (s *dispatchService) post(ctx context.Context, endpoint string, payload any) int {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode payload")
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("failed to build request")
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("dispatch request failed")
		return 0
	}
	defer resp.Body.Close()

	return resp.StatusCode
}

// notifyFailure tells the evaluation callback about a processing failure so
// the coordinating side is never silently unaware. A failed notification is
// logged only.
func (s *dispatchService) notifyFailure(ctx context.Context, evaluationURL, email string, round int, cause error) {
	notice := dto.DispatchErrorNotice{
		Email: email,
		Round: round,
		Error: cause.Error(),
	}

	if status := s.post(ctx, evaluationURL, notice); status == 0 {
		s.logger.Error().
			Str("email", email).
			Int("round", round).
			Msg("failed to report dispatch failure to evaluation callback")
	}
}
