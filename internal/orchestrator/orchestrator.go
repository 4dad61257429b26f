package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/deployeval/internal/catalog"
	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/repository"
	"github.com/noah-isme/deployeval/internal/service"
)

// Orchestrator sequences the two assessment rounds. Every phase re-derives
// what remains to be done from ledger reads, so re-running any phase after
// a crash or timeout is safe.
type Orchestrator struct {
	participants repository.ParticipantRepository
	submissions  repository.SubmissionRepository
	dispatch     service.DispatchService
	scoring      service.ScoringService
	stats        service.StatsService
	catalog      *catalog.Catalog
	logger       zerolog.Logger

	evaluationURL string
	pollInterval  time.Duration
	awaitTimeout  time.Duration
}

// Config carries orchestrator wiring and timing.
type Config struct {
	Participants  repository.ParticipantRepository
	Submissions   repository.SubmissionRepository
	Dispatch      service.DispatchService
	Scoring       service.ScoringService
	Stats         service.StatsService
	Catalog       *catalog.Catalog
	Logger        zerolog.Logger
	EvaluationURL string
	PollInterval  time.Duration
	AwaitTimeout  time.Duration
}

// New builds an orchestrator.
func New(cfg Config) *Orchestrator {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	awaitTimeout := cfg.AwaitTimeout
	if awaitTimeout <= 0 {
		awaitTimeout = 10 * time.Minute
	}

	return &Orchestrator{
		participants:  cfg.Participants,
		submissions:   cfg.Submissions,
		dispatch:      cfg.Dispatch,
		scoring:       cfg.Scoring,
		stats:         cfg.Stats,
		catalog:       cfg.Catalog,
		logger:        cfg.Logger.With().Str("component", "orchestrator").Logger(),
		evaluationURL: cfg.EvaluationURL,
		pollInterval:  pollInterval,
		awaitTimeout:  awaitTimeout,
	}
}

// RegisterParticipants upserts the roster before a round is dispatched.
func (o *Orchestrator) RegisterParticipants(ctx context.Context, roster []models.Participant) error {
	for _, participant := range roster {
		participant.Timestamp = time.Now().UTC()
		if err := o.participants.Upsert(ctx, participant); err != nil {
			return err
		}
	}
	return nil
}

// DispatchRound1 issues an initial task to every registered participant.
// The template is chosen deterministically from the participant seed, so a
// re-run within the same hour picks the same template.
func (o *Orchestrator) DispatchRound1(ctx context.Context) error {
	roster, err := o.participants.List(ctx)
	if err != nil {
		return err
	}

	o.logger.Info().Int("participants", len(roster)).Msg("dispatching round 1")

	templateIDs := o.catalog.TemplateIDs()
	for _, participant := range roster {
		seed := catalog.Seed(participant.Email, "")
		templateID := templateIDs[catalog.NewRNG(seed).Intn(len(templateIDs))]

		outcome, err := o.dispatch.Dispatch(ctx, participant, templateID, 1, o.evaluationURL)
		if err != nil {
			o.logger.Error().Err(err).Str("email", participant.Email).Msg("round 1 dispatch failed")
			continue
		}
		if outcome.Skipped {
			continue
		}

		o.logger.Info().
			Str("email", participant.Email).
			Str("task", outcome.Task).
			Int("status_code", outcome.StatusCode).
			Msg("round 1 task sent")
	}

	return nil
}

// DispatchRound2 issues follow-up tasks, gated on an accepted round-1
// submission; the follow-up reuses the template recorded with that
// submission.
func (o *Orchestrator) DispatchRound2(ctx context.Context) error {
	round1, err := o.submissions.List(ctx, repository.SubmissionFilter{Round: 1})
	if err != nil {
		return err
	}

	o.logger.Info().Int("submissions", len(round1)).Msg("dispatching round 2")

	for _, submission := range round1 {
		participant, err := o.participants.GetByEmail(ctx, submission.Email)
		if err != nil {
			o.logger.Warn().Err(err).Str("email", submission.Email).Msg("round 1 submission without registered participant")
			continue
		}

		outcome, err := o.dispatch.Dispatch(ctx, participant, submission.TemplateID, 2, o.evaluationURL)
		if err != nil {
			o.logger.Error().Err(err).Str("email", submission.Email).Msg("round 2 dispatch failed")
			continue
		}
		if outcome.Skipped {
			continue
		}

		o.logger.Info().
			Str("email", submission.Email).
			Str("task", outcome.Task).
			Int("status_code", outcome.StatusCode).
			Msg("round 2 task sent")
	}

	return nil
}

// Await blocks until the timeout elapses, logging the growing submission
// count at each poll. Participants that report after the timeout are still
// scored whenever a scoring phase next runs.
func (o *Orchestrator) Await(ctx context.Context, round int) error {
	o.logger.Info().
		Int("round", round).
		Dur("timeout", o.awaitTimeout).
		Msg("waiting for submissions")

	deadline := time.NewTimer(o.awaitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			submissions, err := o.submissions.List(ctx, repository.SubmissionFilter{Round: round})
			if err != nil {
				return err
			}
			o.logger.Info().Int("round", round).Int("submissions", len(submissions)).Msg("wait timeout reached")
			return nil
		case <-ticker.C:
			submissions, err := o.submissions.List(ctx, repository.SubmissionFilter{Round: round})
			if err != nil {
				return err
			}
			if len(submissions) > 0 {
				o.logger.Info().Int("round", round).Int("submissions", len(submissions)).Msg("submissions received so far")
			}
		}
	}
}

// Score evaluates the round's submissions.
func (o *Orchestrator) Score(ctx context.Context, round int) error {
	return o.scoring.ScoreRound(ctx, round)
}

// Summary returns the per-participant rollup for reporting.
func (o *Orchestrator) Summary(ctx context.Context) ([]service.ParticipantSummary, error) {
	return o.stats.Summary(ctx)
}

// RunFull drives the complete cycle:
// dispatch round 1, await, score, dispatch round 2, await, score, summary.
func (o *Orchestrator) RunFull(ctx context.Context) ([]service.ParticipantSummary, error) {
	if err := o.DispatchRound1(ctx); err != nil {
		return nil, err
	}
	if err := o.Await(ctx, 1); err != nil {
		return nil, err
	}
	if err := o.Score(ctx, 1); err != nil {
		return nil, err
	}

	if err := o.DispatchRound2(ctx); err != nil {
		return nil, err
	}
	if err := o.Await(ctx, 2); err != nil {
		return nil, err
	}
	if err := o.Score(ctx, 2); err != nil {
		return nil, err
	}

	return o.Summary(ctx)
}
