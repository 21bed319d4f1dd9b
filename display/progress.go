package display

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/loom/generation"
)

// CLISink prints run progress to a terminal using pterm.
type CLISink struct {
	out       io.Writer
	verbosity int
}

// NewCLISink creates a terminal progress sink. At verbosity 0 only phase
// changes are printed.
func NewCLISink(out io.Writer, verbosity int) *CLISink {
	return &CLISink{out: out, verbosity: verbosity}
}

// Report implements generation.ProgressSink.
func (s *CLISink) Report(p generation.Progress) {
	switch {
	case p.Phase == generation.PhaseCompleted:
		pterm.Fprintln(s.out, pterm.Green("✔ ")+p.Message)
	case p.Indeterminate:
		pterm.Fprintln(s.out, pterm.LightCyan(string(p.Phase))+": "+p.Message)
	default:
		pterm.Fprintln(s.out, pterm.Sprintf("%s %s: %s",
			pterm.Gray(pterm.Sprintf("[%3.0f%%]", p.PercentComplete)),
			pterm.LightCyan(string(p.Phase)),
			p.Message))
	}
	if s.verbosity >= 2 && p.TotalItems > 0 {
		pterm.Fprintln(s.out, pterm.Gray(pterm.Sprintf("       %d items", p.TotalItems)))
	}
}

// ProgressEvent is one line of JSON progress output
type ProgressEvent struct {
	Type      string              `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	Progress  generation.Progress `json:"progress"`
}

// JSONSink writes one JSON object per progress notification.
type JSONSink struct {
	encoder *json.Encoder
	now     func() time.Time
}

// NewJSONSink creates a sink emitting newline-delimited JSON to out.
func NewJSONSink(out io.Writer) *JSONSink {
	return &JSONSink{encoder: json.NewEncoder(out), now: time.Now}
}

// Report implements generation.ProgressSink.
func (s *JSONSink) Report(p generation.Progress) {
	_ = s.encoder.Encode(ProgressEvent{
		Type:      "progress",
		Timestamp: s.now().UTC(),
		Progress:  p,
	})
}
