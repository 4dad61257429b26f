package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/observability"
	"github.com/noah-isme/deployeval/internal/repository"
	"github.com/noah-isme/deployeval/pkg/ai"
	"github.com/noah-isme/deployeval/pkg/browser"
	"github.com/noah-isme/deployeval/pkg/githost"
)

// mitIndicators are the canonical license phrases; two or more matches mark
// a license file as MIT.
var mitIndicators = []string{
	"MIT License",
	"Permission is hereby granted, free of charge",
	"THE SOFTWARE IS PROVIDED \"AS IS\"",
}

// CheckOutcome is one scored check before it is written to the ledger.
type CheckOutcome struct {
	Check  string
	Score  float64
	Reason string
	Logs   string
}

// ScoringService evaluates accepted submissions: static repository checks,
// LLM-backed quality checks and dynamic page checks. Check failures are
// isolated; every outcome is appended to the ledger regardless of siblings.
type ScoringService interface {
	// ScoreRound evaluates every stored submission for the round (all
	// rounds when round is zero).
	ScoreRound(ctx context.Context, round int) error
	// ScoreSubmission runs the full check pipeline for one submission and
	// returns the recorded outcomes.
	ScoreSubmission(ctx context.Context, submission models.Submission) ([]CheckOutcome, error)
}

type scoringService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	results     repository.ResultRepository
	git         githost.Client
	llm         ai.Completer
	pages       browser.Runner
	logger      zerolog.Logger
}

// NewScoringService builds the scoring pipeline over its three external
// collaborators.
func NewScoringService(
	submissions repository.SubmissionRepository,
	tasks repository.TaskRepository,
	results repository.ResultRepository,
	git githost.Client,
	llm ai.Completer,
	pages browser.Runner,
	logger zerolog.Logger,
) ScoringService {
	return &scoringService{
		submissions: submissions,
		tasks:       tasks,
		results:     results,
		git:         git,
		llm:         llm,
		pages:       pages,
		logger:      logger.With().Str("component", "scoring_service").Logger(),
	}
}

func (s *scoringService) ScoreRound(ctx context.Context, round int) error {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{Round: round})
	if err != nil {
		return err
	}

	if len(submissions) == 0 {
		s.logger.Info().Int("round", round).Msg("no submissions to evaluate")
		return nil
	}

	for _, submission := range submissions {
		if _, err := s.ScoreSubmission(ctx, submission); err != nil {
			s.logger.Error().Err(err).
				Str("email", submission.Email).
				Str("task", submission.Task).
				Msg("failed to evaluate submission")
		}
	}

	return nil
}

func (s *scoringService) ScoreSubmission(ctx context.Context, submission models.Submission) ([]CheckOutcome, error) {
	s.logger.Info().
		Str("email", submission.Email).
		Str("task", submission.Task).
		Int("round", submission.Round).
		Str("repo_url", submission.RepoURL).
		Msg("evaluating submission")

	// Results record which commit was evaluated. When the notification
	// omitted one, pin the repository head at scoring time.
	if submission.CommitSHA == "" {
		if owner, repo, err := githost.ParseRepoURL(submission.RepoURL); err == nil {
			if sha, err := s.git.LatestCommit(ctx, owner, repo); err == nil {
				submission.CommitSHA = sha
			}
		}
	}

	outcomes := []CheckOutcome{s.checkLicense(ctx, submission)}
	outcomes = append(outcomes, s.checkReadmeQuality(ctx, submission))
	outcomes = append(outcomes, s.checkCodeQuality(ctx, submission))
	outcomes = append(outcomes, s.runDynamicChecks(ctx, submission)...)

	for _, outcome := range outcomes {
		result := models.CheckResult{
			Timestamp: time.Now().UTC(),
			Email:     submission.Email,
			Task:      submission.Task,
			Round:     submission.Round,
			RepoURL:   submission.RepoURL,
			CommitSHA: submission.CommitSHA,
			PagesURL:  submission.PagesURL,
			CheckName: outcome.Check,
			Score:     outcome.Score,
			Reason:    outcome.Reason,
			Logs:      outcome.Logs,
		}
		if err := s.results.Append(ctx, result); err != nil {
			return outcomes, fmt.Errorf("append result %s: %w", outcome.Check, err)
		}
		observability.ChecksScored().WithLabelValues(outcome.Check).Inc()
	}

	total := 0.0
	for _, outcome := range outcomes {
		total += outcome.Score
	}
	s.logger.Info().
		Str("email", submission.Email).
		Str("task", submission.Task).
		Float64("overall", total/float64(len(outcomes))).
		Int("checks", len(outcomes)).
		Msg("submission evaluated")

	return outcomes, nil
}

func (s *scoringService) checkLicense(ctx context.Context, submission models.Submission) CheckOutcome {
	outcome := CheckOutcome{Check: "mit_license"}

	owner, repo, err := githost.ParseRepoURL(submission.RepoURL)
	if err != nil {
		outcome.Reason = "Invalid repository URL format"
		return outcome
	}

	content, err := s.git.FileContent(ctx, owner, repo, "LICENSE")
	if err != nil {
		outcome.Reason = "No LICENSE file found in repository root"
		return outcome
	}

	matches := 0
	for _, indicator := range mitIndicators {
		if strings.Contains(content, indicator) {
			matches++
		}
	}

	if matches >= 2 {
		outcome.Score = 1.0
		outcome.Reason = "Valid MIT license found"
	} else {
		outcome.Score = 0.3
		outcome.Reason = fmt.Sprintf("License file exists but may not be MIT (score: %d/%d)", matches, len(mitIndicators))
	}
	return outcome
}

func (s *scoringService) checkReadmeQuality(ctx context.Context, submission models.Submission) CheckOutcome {
	outcome := CheckOutcome{Check: "readme_quality"}

	owner, repo, err := githost.ParseRepoURL(submission.RepoURL)
	if err != nil {
		outcome.Reason = "Invalid repository URL format"
		return outcome
	}

	readme, err := s.git.FileContent(ctx, owner, repo, "README.md")
	if err != nil {
		outcome.Reason = "No README.md file found"
		return outcome
	}

	prompt := fmt.Sprintf(`Evaluate the quality of this README.md file for a web application project.

README Content:
%s

Rate the README on a scale of 0.0 to 1.0 based on:
- Clarity and professionalism
- Completeness (setup, usage, description)
- Structure and formatting
- Code explanation (if applicable)

Respond with just a number between 0.0 and 1.0, followed by a brief explanation.
Format: SCORE: 0.X - Explanation here`, readme)

	return s.scoreWithLLM(ctx, outcome, "You are a technical documentation evaluator.", prompt)
}

func (s *scoringService) checkCodeQuality(ctx context.Context, submission models.Submission) CheckOutcome {
	outcome := CheckOutcome{Check: "code_quality"}

	owner, repo, err := githost.ParseRepoURL(submission.RepoURL)
	if err != nil {
		outcome.Reason = "Invalid repository URL format"
		return outcome
	}

	entries, err := s.git.ListDir(ctx, owner, repo, "")
	if err != nil {
		outcome.Reason = "Could not access repository contents"
		return outcome
	}

	var files []string
	for _, entry := range entries {
		if entry.Type != "file" || !hasCodeExtension(entry.Name) {
			continue
		}
		if len(files) >= 3 {
			break
		}

		body, err := githost.Download(ctx, entry.DownloadURL)
		if err != nil {
			continue
		}
		if len(body) > 2000 {
			body = body[:2000]
		}
		files = append(files, fmt.Sprintf("File: %s\n%s", entry.Name, body))
	}

	if len(files) == 0 {
		outcome.Reason = "No code files found"
		return outcome
	}

	prompt := fmt.Sprintf(`Evaluate the quality of this web application code.

Code Files:
%s

Rate the code on a scale of 0.0 to 1.0 based on:
- Code structure and organization
- Functionality and completeness
- Best practices and standards
- Error handling

Respond with just a number between 0.0 and 1.0, followed by a brief explanation.
Format: SCORE: 0.X - Explanation here`, strings.Join(files, "\n\n"))

	return s.scoreWithLLM(ctx, outcome, "You are a code quality evaluator.", prompt)
}

// scoreWithLLM runs the completion and parses the SCORE line. An unparsable
// response degrades to a neutral 0.5 with the raw text retained, never a
// pipeline failure.
func (s *scoringService) scoreWithLLM(ctx context.Context, outcome CheckOutcome, system, prompt string) CheckOutcome {
	content, err := s.llm.Complete(ctx, system, prompt)
	if err != nil {
		outcome.Score = 0.0
		outcome.Reason = fmt.Sprintf("Error evaluating %s: %v", outcome.Check, err)
		return outcome
	}

	score, explanation, err := ai.ParseScoreLine(content)
	if err != nil {
		outcome.Score = 0.5
		outcome.Reason = fmt.Sprintf("Could not parse LLM score: %s", content)
		return outcome
	}

	outcome.Score = score
	outcome.Reason = explanation
	outcome.Logs = content
	return outcome
}

// runDynamicChecks replays the check expressions stored with the issued task
// against the published page. Page-load failure short-circuits into a single
// failing result; a missing pages URL yields an explicit zero-score result.
func (s *scoringService) runDynamicChecks(ctx context.Context, submission models.Submission) []CheckOutcome {
	if submission.PagesURL == "" {
		return []CheckOutcome{{
			Check:  "pages_availability",
			Score:  0.0,
			Reason: "No pages URL provided",
		}}
	}

	checks := s.storedChecks(ctx, submission)

	type indexedScript struct {
		position int
		script   string
	}

	outcomes := make([]CheckOutcome, len(checks))
	var scripts []indexedScript
	for i, check := range checks {
		name := fmt.Sprintf("check_%d", i+1)
		if script, ok := strings.CutPrefix(check, "js:"); ok {
			scripts = append(scripts, indexedScript{position: i, script: strings.TrimSpace(script)})
			outcomes[i] = CheckOutcome{Check: name}
		} else {
			outcomes[i] = CheckOutcome{Check: name, Score: 0.0, Reason: "Unknown check type"}
		}
	}

	if len(scripts) == 0 {
		return outcomes
	}

	exprs := make([]string, 0, len(scripts))
	for _, item := range scripts {
		exprs = append(exprs, item.script)
	}

	results, err := s.pages.EvaluateAll(ctx, submission.PagesURL, exprs)
	if err != nil {
		return []CheckOutcome{{
			Check:  "page_load",
			Score:  0.0,
			Reason: fmt.Sprintf("Failed to load page: %v", err),
		}}
	}

	for i, result := range results {
		position := scripts[i].position
		score := 0.0
		if result.Pass {
			score = 1.0
		}
		outcomes[position].Score = score
		outcomes[position].Reason = result.Detail
	}

	return outcomes
}

// storedChecks recovers the check expressions persisted when the task was
// dispatched. Falling back to generic page checks keeps scoring useful if
// the task row has gone missing.
func (s *scoringService) storedChecks(ctx context.Context, submission models.Submission) []string {
	issued, err := s.tasks.List(ctx, repository.TaskFilter{Email: submission.Email, Round: submission.Round})
	if err == nil {
		for _, task := range issued {
			if task.Task == submission.Task && task.Nonce == submission.Nonce {
				if checks := task.ChecksSlice(); len(checks) > 0 {
					return checks
				}
			}
		}
	}

	return []string{
		"js: document.title.length > 0",
		"js: document.body.children.length > 0",
		"js: !!document.querySelector('html')",
	}
}

func hasCodeExtension(name string) bool {
	for _, ext := range []string{".html", ".js", ".css", ".py"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
