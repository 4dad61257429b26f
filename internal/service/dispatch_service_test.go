package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/deployeval/internal/catalog"
	"github.com/noah-isme/deployeval/internal/dto"
	"github.com/noah-isme/deployeval/internal/models"
	"github.com/noah-isme/deployeval/internal/repository"
)

func testParticipant(endpoint string) models.Participant {
	return models.Participant{
		Timestamp: time.Now().UTC(),
		Email:     "alice@example.com",
		Endpoint:  endpoint,
		Secret:    "super secret",
	}
}

func TestDispatchDeliversAndRecordsTask(t *testing.T) {
	db := setupServiceDB(t)
	tasks := repository.NewTaskRepository(db)

	var received dto.DispatchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewDispatchService(catalog.New(testLogger()), tasks, 5*time.Second, testLogger())

	outcome, err := svc.Dispatch(context.Background(), testParticipant(server.URL), "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.False(t, outcome.Skipped)
	require.Equal(t, http.StatusOK, outcome.StatusCode)

	require.Equal(t, "alice@example.com", received.Email)
	require.Equal(t, "super secret", received.Secret)
	require.Equal(t, outcome.Task, received.Task)
	require.NotEmpty(t, received.Nonce)
	require.NotEmpty(t, received.Brief)
	require.NotEmpty(t, received.Checks)
	require.Equal(t, "http://localhost:8001/notify", received.EvaluationURL)

	stored, err := tasks.List(context.Background(), repository.TaskFilter{Email: "alice@example.com", Round: 1})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, http.StatusOK, stored[0].StatusCode)
	require.Equal(t, "sum-of-sales", stored[0].TemplateID)
	require.Equal(t, received.Nonce, stored[0].Nonce)
	require.NotEmpty(t, stored[0].ChecksSlice())
}

func TestDispatchSkipsAfterSuccessfulDelivery(t *testing.T) {
	db := setupServiceDB(t)
	tasks := repository.NewTaskRepository(db)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewDispatchService(catalog.New(testLogger()), tasks, 5*time.Second, testLogger())
	participant := testParticipant(server.URL)

	first, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.Equal(t, 1, calls, "a delivered round must not be re-dispatched")
}

func TestDispatchRetriesAfterFailedDelivery(t *testing.T) {
	db := setupServiceDB(t)
	tasks := repository.NewTaskRepository(db)

	fail := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewDispatchService(catalog.New(testLogger()), tasks, 5*time.Second, testLogger())
	participant := testParticipant(server.URL)

	first, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, first.StatusCode)

	fail = false
	second, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.False(t, second.Skipped, "failed attempts must not gate retries")
	require.Equal(t, http.StatusOK, second.StatusCode)

	stored, err := tasks.List(context.Background(), repository.TaskFilter{Email: "alice@example.com", Round: 1})
	require.NoError(t, err)
	require.Len(t, stored, 2, "every attempt is recorded with its own nonce")
}

func TestDispatchRecordsTransportFailureAsZero(t *testing.T) {
	db := setupServiceDB(t)
	tasks := repository.NewTaskRepository(db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // unreachable endpoint

	svc := NewDispatchService(catalog.New(testLogger()), tasks, time.Second, testLogger())

	outcome, err := svc.Dispatch(context.Background(), testParticipant(server.URL), "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.Equal(t, 0, outcome.StatusCode)

	stored, err := tasks.List(context.Background(), repository.TaskFilter{Email: "alice@example.com", Round: 1})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, 0, stored[0].StatusCode)
}

func TestDispatchRound2GatesOnTemplate(t *testing.T) {
	db := setupServiceDB(t)
	tasks := repository.NewTaskRepository(db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewDispatchService(catalog.New(testLogger()), tasks, 5*time.Second, testLogger())
	participant := testParticipant(server.URL)

	// A delivered round 1 must not gate round 2.
	first, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 1, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 2, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.False(t, second.Skipped)
	require.Equal(t, first.Task, second.Task, "both rounds share the template task id")

	again, err := svc.Dispatch(context.Background(), participant, "sum-of-sales", 2, "http://localhost:8001/notify")
	require.NoError(t, err)
	require.True(t, again.Skipped)
}

func TestDispatchReportsUnknownTemplateToCallback(t *testing.T) {
	db := setupServiceDB(t)
	tasks := repository.NewTaskRepository(db)

	var notice dto.DispatchErrorNotice
	callback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&notice))
		w.WriteHeader(http.StatusOK)
	}))
	defer callback.Close()

	svc := NewDispatchService(catalog.New(testLogger()), tasks, 5*time.Second, testLogger())

	_, err := svc.Dispatch(context.Background(), testParticipant("http://localhost:1/unused"), "no-such-template", 1, callback.URL)
	require.ErrorIs(t, err, catalog.ErrUnknownTemplate)
	require.Equal(t, "alice@example.com", notice.Email)
	require.Equal(t, 1, notice.Round)
	require.NotEmpty(t, notice.Error)
}
