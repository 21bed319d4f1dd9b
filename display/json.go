package display

import (
	"encoding/json"
	"flag"
	"os"
)

// CallerEnv set to "llm" switches JSON output to compact form.
const CallerEnv = "LOOM_CALLER"

// IsLLMEnvironment reports whether loom is being driven by an agent rather
// than a person at a terminal.
func IsLLMEnvironment() bool {
	if os.Getenv(CallerEnv) == "llm" {
		return true
	}
	return os.Getenv("CLAUDECODE") != "" || os.Getenv("CURSOR_AGENT") != ""
}

// MarshalJSON marshals JSON with compact formatting for LLM environments,
// pretty formatting for human-readable output
func MarshalJSON(v any) ([]byte, error) {
	// Golden output in tests is always pretty
	if flag.Lookup("test.v") != nil {
		return json.MarshalIndent(v, "", "  ")
	}
	if IsLLMEnvironment() {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
