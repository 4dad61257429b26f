package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/deployeval/internal/catalog"
	"github.com/noah-isme/deployeval/internal/config"
	"github.com/noah-isme/deployeval/internal/database"
	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/orchestrator"
	"github.com/noah-isme/deployeval/internal/repository"
	"github.com/noah-isme/deployeval/internal/service"
	"github.com/noah-isme/deployeval/pkg/ai"
	"github.com/noah-isme/deployeval/pkg/browser"
	"github.com/noah-isme/deployeval/pkg/githost"
)

func main() {
	round1 := flag.Bool("round1", false, "dispatch round 1 tasks")
	round2 := flag.Bool("round2", false, "dispatch round 2 tasks")
	evaluate := flag.Bool("evaluate", false, "score submitted repositories")
	full := flag.Bool("full", false, "run the complete evaluation cycle")
	summary := flag.Bool("summary", false, "print the evaluation summary")
	wait := flag.Duration("wait", 0, "override how long to wait for submissions between phases")
	evalURL := flag.String("eval-url", "", "override the evaluation callback URL")
	participantsPath := flag.String("participants", "", "CSV roster to register (email,endpoint,secret)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if *wait > 0 {
		cfg.AwaitTimeout = *wait
	}
	if *evalURL != "" {
		cfg.EvaluationURL = *evalURL
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	participantRepo := repository.NewParticipantRepository(db)

	cat := catalog.New(logger)
	dispatchService := service.NewDispatchService(cat, taskRepo, cfg.DispatchTimeout, logger)
	statsService := service.NewStatsService(submissionRepo, resultRepo, logger)

	needsScoring := *evaluate || *full
	var scoringService service.ScoringService
	if needsScoring {
		completer, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create LLM client: %v", err)
		}

		git := githost.NewGitHubClient(githost.GitHubConfig{Token: cfg.GitHubToken, Logger: logger})
		runner := browser.NewChromeRunner(browser.ChromeConfig{NavigateTimeout: cfg.BrowserTimeout, Logger: logger})

		scoringService = service.NewScoringService(submissionRepo, taskRepo, resultRepo, git, completer, runner, logger)
	}

	orc := orchestrator.New(orchestrator.Config{
		Participants:  participantRepo,
		Submissions:   submissionRepo,
		Dispatch:      dispatchService,
		Scoring:       scoringService,
		Stats:         statsService,
		Catalog:       cat,
		Logger:        logger,
		EvaluationURL: cfg.EvaluationURL,
		PollInterval:  cfg.PollInterval,
		AwaitTimeout:  cfg.AwaitTimeout,
	})

	ctx := context.Background()

	if *participantsPath != "" {
		roster, err := loadRoster(*participantsPath)
		if err != nil {
			log.Fatalf("failed to load participants: %v", err)
		}
		if err := orc.RegisterParticipants(ctx, roster); err != nil {
			log.Fatalf("failed to register participants: %v", err)
		}
		logger.Info().Int("participants", len(roster)).Msg("roster registered")
	}

	switch {
	case *full:
		summaries, err := orc.RunFull(ctx)
		if err != nil {
			log.Fatalf("full evaluation cycle failed: %v", err)
		}
		printSummary(summaries)
	case *round1:
		if err := orc.DispatchRound1(ctx); err != nil {
			log.Fatalf("round 1 dispatch failed: %v", err)
		}
	case *round2:
		if err := orc.DispatchRound2(ctx); err != nil {
			log.Fatalf("round 2 dispatch failed: %v", err)
		}
	case *evaluate:
		if err := orc.Score(ctx, 0); err != nil {
			log.Fatalf("evaluation failed: %v", err)
		}
	case *summary:
		summaries, err := orc.Summary(ctx)
		if err != nil {
			log.Fatalf("summary failed: %v", err)
		}
		printSummary(summaries)
	default:
		flag.Usage()
	}
}

// loadRoster parses a participant CSV of email,endpoint,secret rows. A
// header row starting with "email" is skipped.
func loadRoster(path string) ([]models.Participant, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	roster := make([]models.Participant, 0, len(records))
	for i, record := range records {
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d: expected email,endpoint,secret", i+1)
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "email") {
			continue
		}

		roster = append(roster, models.Participant{
			Timestamp: time.Now().UTC(),
			Email:     strings.TrimSpace(record[0]),
			Endpoint:  strings.TrimSpace(record[1]),
			Secret:    strings.TrimSpace(record[2]),
		})
	}

	return roster, nil
}

func printSummary(summaries []service.ParticipantSummary) {
	if len(summaries) == 0 {
		fmt.Println("no submissions found")
		return
	}

	for _, participant := range summaries {
		fmt.Printf("\n%s\n", participant.Email)
		printRound(1, participant.Round1)
		printRound(2, participant.Round2)
	}
}

func printRound(number int, round service.RoundSummary) {
	if !round.Completed {
		fmt.Printf("  round %d: not completed\n", number)
		return
	}

	fmt.Printf("  round %d: %s\n", number, round.Task)
	fmt.Printf("    repo:  %s\n", round.RepoURL)
	if round.PagesURL != "" {
		fmt.Printf("    pages: %s\n", round.PagesURL)
	}
	if len(round.Scores) > 0 {
		fmt.Printf("    score: %.2f (%d checks)\n", round.Average, len(round.Scores))
		for check, score := range round.Scores {
			fmt.Printf("      %s: %.2f\n", check, score)
		}
	}
}
