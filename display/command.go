package display

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/loom/errors"
)

// ShouldOutputJSON determines if a command should output JSON based on flags and LLM detection
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return IsLLMEnvironment()
	}

	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		on, _ := cmd.Flags().GetBool("json")
		return on
	}
	if on, _ := cmd.Root().PersistentFlags().GetBool("json"); on {
		return true
	}
	return IsLLMEnvironment()
}

// OutputJSON marshals v with MarshalJSON and writes it to w
func OutputJSON(w io.Writer, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
