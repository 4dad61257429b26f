package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/deployeval/internal/catalog"
	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/repository"
	"github.com/noah-isme/deployeval/internal/service"
)

type dispatchCall struct {
	Email      string
	TemplateID string
	Round      int
}

type fakeDispatch struct {
	calls []dispatchCall
}

func (f *fakeDispatch) Dispatch(_ context.Context, participant models.Participant, templateID string, round int, _ string) (service.DispatchOutcome, error) {
	f.calls = append(f.calls, dispatchCall{Email: participant.Email, TemplateID: templateID, Round: round})
	return service.DispatchOutcome{Task: templateID + "-ab12c", StatusCode: 200}, nil
}

func setupOrchestrator(t *testing.T, dispatch service.DispatchService) (*Orchestrator, repository.ParticipantRepository, repository.SubmissionRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Task{}, &models.Submission{}, &models.CheckResult{}, &models.Participant{}))

	participants := repository.NewParticipantRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	results := repository.NewResultRepository(db)
	logger := zerolog.Nop()

	orc := New(Config{
		Participants:  participants,
		Submissions:   submissions,
		Dispatch:      dispatch,
		Stats:         service.NewStatsService(submissions, results, logger),
		Catalog:       catalog.New(logger),
		Logger:        logger,
		EvaluationURL: "http://localhost:8001/notify",
		PollInterval:  10 * time.Millisecond,
		AwaitTimeout:  50 * time.Millisecond,
	})

	return orc, participants, submissions
}

func TestDispatchRound1CoversRoster(t *testing.T) {
	dispatch := &fakeDispatch{}
	orc, participants, _ := setupOrchestrator(t, dispatch)

	roster := []models.Participant{
		{Email: "alice@example.com", Endpoint: "http://localhost:8000/a", Secret: "a"},
		{Email: "bob@example.com", Endpoint: "http://localhost:8000/b", Secret: "b"},
	}
	require.NoError(t, orc.RegisterParticipants(context.Background(), roster))

	stored, err := participants.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)

	require.NoError(t, orc.DispatchRound1(context.Background()))
	require.Len(t, dispatch.calls, 2)

	templateIDs := catalog.New(zerolog.Nop()).TemplateIDs()
	for _, call := range dispatch.calls {
		require.Equal(t, 1, call.Round)
		require.Contains(t, templateIDs, call.TemplateID)
	}
}

func TestRound1TemplateChoiceIsDeterministic(t *testing.T) {
	first := &fakeDispatch{}
	orc, _, _ := setupOrchestrator(t, first)
	require.NoError(t, orc.RegisterParticipants(context.Background(), []models.Participant{
		{Email: "alice@example.com", Endpoint: "http://localhost:8000/a", Secret: "a"},
	}))
	require.NoError(t, orc.DispatchRound1(context.Background()))
	require.NoError(t, orc.DispatchRound1(context.Background()))

	require.Len(t, first.calls, 2)
	require.Equal(t, first.calls[0].TemplateID, first.calls[1].TemplateID,
		"re-runs within the hour pick the same template")
}

func TestDispatchRound2FollowsRound1Submissions(t *testing.T) {
	dispatch := &fakeDispatch{}
	orc, _, submissions := setupOrchestrator(t, dispatch)

	require.NoError(t, orc.RegisterParticipants(context.Background(), []models.Participant{
		{Email: "alice@example.com", Endpoint: "http://localhost:8000/a", Secret: "a"},
	}))

	// Bob submitted but was never registered; Carol never submitted.
	require.NoError(t, submissions.Put(context.Background(), models.Submission{
		Timestamp:  time.Now().UTC(),
		Email:      "alice@example.com",
		TemplateID: "markdown-to-html",
		Task:       "markdown-to-html-ab12c",
		Round:      1,
		Nonce:      "nonce-1",
		RepoURL:    "https://github.com/alice/project",
	}))
	require.NoError(t, submissions.Put(context.Background(), models.Submission{
		Timestamp:  time.Now().UTC(),
		Email:      "bob@example.com",
		TemplateID: "sum-of-sales",
		Task:       "sum-of-sales-ab12c",
		Round:      1,
		Nonce:      "nonce-2",
		RepoURL:    "https://github.com/bob/project",
	}))

	require.NoError(t, orc.DispatchRound2(context.Background()))

	require.Len(t, dispatch.calls, 1, "only registered participants with round 1 submissions get round 2")
	require.Equal(t, "alice@example.com", dispatch.calls[0].Email)
	require.Equal(t, "markdown-to-html", dispatch.calls[0].TemplateID, "round 2 reuses the submitted template")
	require.Equal(t, 2, dispatch.calls[0].Round)
}

func TestAwaitReturnsAfterTimeout(t *testing.T) {
	orc, _, _ := setupOrchestrator(t, &fakeDispatch{})

	start := time.Now()
	require.NoError(t, orc.Await(context.Background(), 1))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestAwaitHonoursContextCancellation(t *testing.T) {
	orc, _, _ := setupOrchestrator(t, &fakeDispatch{})
	orc.awaitTimeout = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, orc.Await(ctx, 1), context.Canceled)
}
