// Package store persists run records for the job service.
package store

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Run is one automation run tracked by the job service.
type Run struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	// AppointmentDate and ActiveTab carry the extracted values on success.
	AppointmentDate string    `json:"appointment_date,omitempty"`
	ActiveTab       string    `json:"active_tab,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ErrNotFound reports an unknown run id.
var ErrNotFound = errors.New("run not found")

// Store persists run records. Implementations must be safe for concurrent
// use.
type Store interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	Close() error
}
