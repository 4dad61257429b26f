package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/noah-isme/deployeval/internal/repository"
)

// RoundSummary rolls up one participant round: the accepted submission and
// the mean of its recorded check scores.
type RoundSummary struct {
	Completed bool               `json:"completed"`
	Task      string             `json:"task,omitempty"`
	RepoURL   string             `json:"repo_url,omitempty"`
	PagesURL  string             `json:"pages_url,omitempty"`
	Scores    map[string]float64 `json:"scores,omitempty"`
	Average   float64            `json:"average"`
}

// ParticipantSummary is the per-participant evaluation rollup.
type ParticipantSummary struct {
	Email  string       `json:"email"`
	Round1 RoundSummary `json:"round1"`
	Round2 RoundSummary `json:"round2"`
}

// Overview is the aggregate view served by the stats endpoint.
type Overview struct {
	TotalParticipants int                  `json:"total_participants"`
	Round1Complete    int                  `json:"round1_complete"`
	Round2Complete    int                  `json:"round2_complete"`
	TotalSubmissions  int                  `json:"total_submissions"`
	TotalResults      int                  `json:"total_results"`
	Participants      []ParticipantSummary `json:"participants"`
}

// StatsService derives evaluation rollups from ledger reads only, so the
// numbers stay correct across restarts and re-runs.
type StatsService interface {
	Overview(ctx context.Context) (Overview, error)
	Summary(ctx context.Context) ([]ParticipantSummary, error)
}

type statsService struct {
	submissions repository.SubmissionRepository
	results     repository.ResultRepository
	logger      zerolog.Logger
}

// NewStatsService builds the rollup service.
func NewStatsService(
	submissions repository.SubmissionRepository,
	results repository.ResultRepository,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		submissions: submissions,
		results:     results,
		logger:      logger.With().Str("component", "stats_service").Logger(),
	}
}

func (s *statsService) Summary(ctx context.Context) ([]ParticipantSummary, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{})
	if err != nil {
		return nil, err
	}

	results, err := s.results.List(ctx, repository.ResultFilter{})
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string]*ParticipantSummary)
	for _, submission := range submissions {
		summary, ok := byEmail[submission.Email]
		if !ok {
			summary = &ParticipantSummary{Email: submission.Email}
			byEmail[submission.Email] = summary
		}

		round := RoundSummary{
			Completed: true,
			Task:      submission.Task,
			RepoURL:   submission.RepoURL,
			PagesURL:  submission.PagesURL,
			Scores:    make(map[string]float64),
		}
		switch submission.Round {
		case 1:
			summary.Round1 = round
		case 2:
			summary.Round2 = round
		}
	}

	for _, result := range results {
		summary, ok := byEmail[result.Email]
		if !ok {
			continue
		}

		// Later rows for the same check name win, so a re-scored
		// submission reports its freshest outcome.
		switch result.Round {
		case 1:
			if summary.Round1.Scores != nil {
				summary.Round1.Scores[result.CheckName] = result.Score
			}
		case 2:
			if summary.Round2.Scores != nil {
				summary.Round2.Scores[result.CheckName] = result.Score
			}
		}
	}

	summaries := make([]ParticipantSummary, 0, len(byEmail))
	for _, summary := range byEmail {
		summary.Round1.Average = meanScore(summary.Round1.Scores)
		summary.Round2.Average = meanScore(summary.Round2.Scores)
		summaries = append(summaries, *summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Email < summaries[j].Email
	})

	return summaries, nil
}

func (s *statsService) Overview(ctx context.Context) (Overview, error) {
	summaries, err := s.Summary(ctx)
	if err != nil {
		return Overview{}, err
	}

	results, err := s.results.List(ctx, repository.ResultFilter{})
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{
		TotalParticipants: len(summaries),
		TotalResults:      len(results),
		Participants:      summaries,
	}
	for _, summary := range summaries {
		if summary.Round1.Completed {
			overview.Round1Complete++
			overview.TotalSubmissions++
		}
		if summary.Round2.Completed {
			overview.Round2Complete++
			overview.TotalSubmissions++
		}
	}

	return overview, nil
}

func meanScore(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	total := 0.0
	for _, score := range scores {
		total += score
	}
	return total / float64(len(scores))
}
