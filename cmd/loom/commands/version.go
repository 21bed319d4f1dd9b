package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/loom/display"
	"github.com/teranos/loom/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show loom version information",
		Long:  `Display version, engine version, build time, commit hash, and platform information for the loom binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			pterm.Fprintln(out, info.String())
			pterm.Fprintln(out, "Platform: "+info.Platform)
			pterm.Fprintln(out, "Go: "+info.GoVersion)
			return nil
		},
	}
}
