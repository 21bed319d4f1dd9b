// Package generation holds the per-run state shared by the orchestrator and
// generators: the result being built, progress records and bus event payloads.
package generation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/logger"
	"github.com/teranos/loom/schema"
)

// Result is the unit of work state for one generation run.
//
// It is mutated by the orchestrator and by generator handlers while the run
// is in progress and frozen before it is handed back to the caller. Message
// lists are guarded; the tree under Root is not.
type Result struct {
	ID        string         `json:"id"`
	Root      *artifact.Root `json:"-"`
	Schema    *schema.Schema `json:"-"`
	Errors    []string       `json:"errors"`
	Warnings  []string       `json:"warnings"`
	Infos     []string       `json:"infos"`
	Success   bool           `json:"success"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`

	mu     sync.Mutex
	frozen bool
	log    *zap.SugaredLogger
}

// NewResult creates a result with a fresh root artifact. Success starts true
// and is cleared by the first error.
func NewResult(rootName string, log *zap.SugaredLogger) *Result {
	id := uuid.NewString()
	return &Result{
		ID:        id,
		Root:      artifact.NewRoot(rootName),
		Errors:    []string{},
		Warnings:  []string{},
		Infos:     []string{},
		Success:   true,
		StartedAt: time.Now(),
		log:       logger.OrNop(log).With(logger.FieldRunID, id),
	}
}

// AddError records a failure and marks the run unsuccessful.
func (r *Result) AddError(format string, args ...any) {
	r.add(&r.Errors, "error", format, args...)
}

// AddWarning records a non-fatal problem. Warnings never affect Success.
func (r *Result) AddWarning(format string, args ...any) {
	r.add(&r.Warnings, "warning", format, args...)
}

// AddInfo records an informational message.
func (r *Result) AddInfo(format string, args ...any) {
	r.add(&r.Infos, "info", format, args...)
}

func (r *Result) add(list *[]string, kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		r.log.Warnw("Dropping message added after the run returned", "kind", kind, "message", msg)
		return
	}
	*list = append(*list, msg)
	if list == &r.Errors {
		r.Success = false
	}
}

// Fail records err as an error entry.
func (r *Result) Fail(err error) {
	r.AddError("%s", err.Error())
}

// Finish stamps the duration and freezes the result.
func (r *Result) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	r.Duration = time.Since(r.StartedAt)
	r.frozen = true
}

// Frozen reports whether the result has been returned to the caller.
func (r *Result) Frozen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frozen
}

// Counts returns the number of errors, warnings and infos recorded so far.
func (r *Result) Counts() (errs, warnings, infos int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors), len(r.Warnings), len(r.Infos)
}

// Logger returns the run-scoped logger.
func (r *Result) Logger() *zap.SugaredLogger { return r.log }
