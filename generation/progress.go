package generation

// Phase is one state of the orchestrator's linear run state machine.
type Phase string

const (
	PhaseInitializing         Phase = "initializing"
	PhaseCreatingRootArtifact Phase = "creating_root_artifact"
	PhaseRunningGenerators    Phase = "running_generators" // skipped in preview runs
	PhaseFinalizing           Phase = "finalizing"
	PhaseCompleted            Phase = "completed"
)

// Progress is one progress notification for a run.
type Progress struct {
	TotalItems      int     `json:"total_items"`
	PercentComplete float64 `json:"percent_complete"`
	Message         string  `json:"message"`
	Phase           Phase   `json:"phase"`
	Indeterminate   bool    `json:"indeterminate"`
}

// ProgressSink receives progress notifications from the orchestrator.
// Report is never called from inside a bus handler.
type ProgressSink interface {
	Report(p Progress)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Progress)

// Report implements ProgressSink.
func (f SinkFunc) Report(p Progress) { f(p) }

// Discard is a sink that ignores every notification.
var Discard ProgressSink = SinkFunc(func(Progress) {})
