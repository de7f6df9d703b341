package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TeoEchavarria/sura-automatization-reschedule/events"
	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
	"github.com/TeoEchavarria/sura-automatization-reschedule/store"
	"github.com/TeoEchavarria/sura-automatization-reschedule/sura"
)

func testServer(run runner) *server {
	return newServer(store.NewMemoryStore(), events.NopPublisher{}, zap.NewNop().Sugar(), run)
}

func okRunner(cfg sura.Config, _ *zap.SugaredLogger) (*sura.Outcome, error) {
	return &sura.Outcome{
		AppointmentDate: &pipeline.DateTimeValue{Date: "12/09/2025", Time: "10:30"},
		ActiveTabLabel:  "MIE 17",
	}, nil
}

func failRunner(cfg sura.Config, _ *zap.SugaredLogger) (*sura.Outcome, error) {
	return &sura.Outcome{Warnings: []string{"action failed: sign in"}},
		fmt.Errorf("login: block credentials: timeout")
}

func postRun(t *testing.T, s *server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func getRun(t *testing.T, s *server, id string) (int, store.Run) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+id, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	var run store.Run
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	}
	return rec.Code, run
}

func waitForStatus(t *testing.T, s *server, id string, want store.Status) store.Run {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		code, run := getRun(t, s, id)
		if code == http.StatusOK && run.Status == want {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %s", id, want)
	return store.Run{}
}

func TestHealth(t *testing.T) {
	s := testServer(okRunner)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRunRejectsMissingCredentials(t *testing.T) {
	s := testServer(okRunner)
	rec := postRun(t, s, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunLifecycleSuccess(t *testing.T) {
	s := testServer(okRunner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.worker(ctx)

	rec := postRun(t, s, `{"document_number":"1020304050","keypad_pin":"1204"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created store.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, store.StatusQueued, created.Status)

	done := waitForStatus(t, s, created.ID, store.StatusDone)
	assert.Equal(t, "12/09/2025", done.AppointmentDate)
	assert.Equal(t, "MIE 17", done.ActiveTab)
	assert.Empty(t, done.Error)
}

func TestRunLifecycleFailure(t *testing.T) {
	s := testServer(failRunner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.worker(ctx)

	rec := postRun(t, s, `{"document_number":"1020304050","keypad_pin":"1204"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created store.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	failed := waitForStatus(t, s, created.ID, store.StatusFailed)
	assert.Contains(t, failed.Error, "login")
	assert.Contains(t, failed.Warnings, "action failed: sign in")
}

func TestGetRunNotFound(t *testing.T) {
	s := testServer(okRunner)
	code, _ := getRun(t, s, "no-such-run")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestQueueFullRejectsRun(t *testing.T) {
	s := testServer(okRunner)
	// no worker draining; fill the queue
	for i := 0; i < cap(s.queue); i++ {
		rec := postRun(t, s, `{"document_number":"1020304050","keypad_pin":"1204"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	rec := postRun(t, s, `{"document_number":"1020304050","keypad_pin":"1204"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
