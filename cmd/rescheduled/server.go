package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/TeoEchavarria/sura-automatization-reschedule/events"
	"github.com/TeoEchavarria/sura-automatization-reschedule/store"
	"github.com/TeoEchavarria/sura-automatization-reschedule/sura"
)

// runner executes one portal automation; injected so handler tests never open
// a browser.
type runner func(cfg sura.Config, log *zap.SugaredLogger) (*sura.Outcome, error)

type job struct {
	id  string
	cfg sura.Config
}

type server struct {
	store store.Store
	pub   events.Publisher
	log   *zap.SugaredLogger
	run   runner
	queue chan job
}

func newServer(st store.Store, pub events.Publisher, log *zap.SugaredLogger, run runner) *server {
	return &server{
		store: st,
		pub:   pub,
		log:   log,
		run:   run,
		// one browser at a time; extra requests wait in the queue
		queue: make(chan job, 16),
	}
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/runs", s.handleCreateRun).Methods("POST")
	r.HandleFunc("/api/v1/runs/{id}", s.handleGetRun).Methods("GET")
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// createRunRequest optionally overrides the environment credentials.
type createRunRequest struct {
	DocumentType   string `json:"document_type,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	KeypadPIN      string `json:"keypad_pin,omitempty"`
}

func (s *server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if r.Body != nil {
		// an empty body means run with env credentials
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	cfg := sura.ConfigFromEnv()
	if req.DocumentType != "" {
		cfg.DocumentType = req.DocumentType
	}
	if req.DocumentNumber != "" {
		cfg.DocumentNumber = req.DocumentNumber
	}
	if req.KeypadPIN != "" {
		cfg.KeypadPIN = req.KeypadPIN
	}
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	run := store.Run{ID: uuid.New().String(), Status: store.StatusQueued, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Save(r.Context(), run); err != nil {
		s.log.Errorf("save run: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not persist run"})
		return
	}

	select {
	case s.queue <- job{id: run.ID, cfg: cfg}:
	default:
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "run queue is full"})
		return
	}

	s.publish(r.Context(), run)
	writeJSON(w, http.StatusAccepted, run)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := s.store.Get(r.Context(), id)
	if err == store.ErrNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	if err != nil {
		s.log.Errorf("get run %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load run"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// worker drains the queue one run at a time until the context is cancelled.
func (s *server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.execute(ctx, j)
		}
	}
}

func (s *server) execute(ctx context.Context, j job) {
	s.updateRun(ctx, j.id, func(run *store.Run) {
		run.Status = store.StatusRunning
	})

	outcome, err := s.run(j.cfg, s.log)
	s.updateRun(ctx, j.id, func(run *store.Run) {
		if err != nil {
			run.Status = store.StatusFailed
			run.Error = err.Error()
		} else {
			run.Status = store.StatusDone
		}
		if outcome != nil {
			run.Warnings = outcome.Warnings
			if outcome.AppointmentDate != nil {
				run.AppointmentDate = outcome.AppointmentDate.Date
			}
			run.ActiveTab = outcome.ActiveTabLabel
		}
	})
}

// updateRun loads, mutates and saves a run record, publishing the new state.
func (s *server) updateRun(ctx context.Context, id string, mutate func(*store.Run)) {
	run, err := s.store.Get(ctx, id)
	if err != nil {
		s.log.Errorf("load run %s: %v", id, err)
		return
	}
	mutate(&run)
	run.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, run); err != nil {
		s.log.Errorf("save run %s: %v", id, err)
		return
	}
	s.publish(ctx, run)
}

func (s *server) publish(ctx context.Context, run store.Run) {
	evt := events.RunEvent{
		RunID:    run.ID,
		Status:   string(run.Status),
		Error:    run.Error,
		Warnings: run.Warnings,
	}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Warnf("publish run event %s: %v", run.ID, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
