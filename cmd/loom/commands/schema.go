package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/loom/display"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect schema files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>...",
		Short: "Parse and validate schema files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSchemaValidate,
	})
	return cmd
}

type schemaReport struct {
	Path     string `json:"path"`
	Valid    bool   `json:"valid"`
	Entities int    `json:"entities,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runSchemaValidate(cmd *cobra.Command, args []string) error {
	var loader schema.FileLoader
	reports := make([]schemaReport, 0, len(args))
	failed := 0
	for _, path := range args {
		s, err := loader.LoadSchema(cmd.Context(), path)
		r := schemaReport{Path: path, Valid: err == nil}
		if err != nil {
			r.Error = err.Error()
			failed++
		} else {
			r.Entities = len(s.Entities)
		}
		reports = append(reports, r)
	}

	if display.ShouldOutputJSON(cmd) {
		if err := display.OutputJSON(cmd.OutOrStdout(), reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			if r.Valid {
				pterm.Fprintln(cmd.OutOrStdout(), pterm.Green("✔ ")+r.Path+pterm.Gray(pterm.Sprintf(" (%d entities)", r.Entities)))
			} else {
				pterm.Fprintln(cmd.OutOrStdout(), pterm.Red("✘ ")+r.Path+": "+r.Error)
			}
		}
	}

	if failed > 0 {
		return errors.Newf("%d of %d schema files invalid", failed, len(args))
	}
	return nil
}
