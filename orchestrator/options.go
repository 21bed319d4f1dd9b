package orchestrator

import (
	"go.uber.org/zap"
)

// FailurePolicy decides what happens to bus handler failures during a run.
type FailurePolicy string

const (
	// PolicyLog only logs handler failures; the run can still succeed
	// with a generator silently missing its contribution.
	PolicyLog FailurePolicy = "log"

	// PolicyWarn additionally records each failure in Result.Warnings.
	// Success is unaffected.
	PolicyWarn FailurePolicy = "warn"
)

// ParsePolicy converts a config value to a FailurePolicy.
func ParsePolicy(s string) (FailurePolicy, bool) {
	switch FailurePolicy(s) {
	case PolicyLog, "":
		return PolicyLog, true
	case PolicyWarn:
		return PolicyWarn, true
	}
	return "", false
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger. The bus logs through it as well.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithHandlerFailures sets the handler failure policy. Default PolicyLog.
func WithHandlerFailures(p FailurePolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithWorkers bounds concurrent materialization per tree level. Default 1.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}
