// Package jobs tracks analysis job state behind a small Store interface so
// the in-memory default can be swapped for a durable backend without touching
// the analysis engine.
package jobs

import (
	"context"
	"time"

	"github.com/dentistenvy/backend/analyzer"
)

// Job lifecycle states. Completed and failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is the tracked state of one analysis run.
type Job struct {
	ID              string                   `json:"id"`
	Status          string                   `json:"status"`
	Progress        int                      `json:"progress"`
	ProgressMessage string                   `json:"progressMessage"`
	Result          *analyzer.AnalysisReport `json:"result,omitempty"`
	Error           string                   `json:"error,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// Store persists jobs. Get reports absence with found=false rather than an
// error; a missing job is an expected condition, not a fault.
type Store interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (job Job, found bool, err error)
	Update(ctx context.Context, job Job) error
}
