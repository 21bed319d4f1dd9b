package commands

import (
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/loom/display"
	"github.com/teranos/loom/render"
)

// generatorView is the listing shape of one registered generator.
type generatorView struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Engine      string   `json:"engine,omitempty"`
	Description string   `json:"description"`
	Fields      []string `json:"fields,omitempty"`
	Templates   []string `json:"templates,omitempty"`
}

func newGeneratorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "generators",
		Aliases: []string{"gen", "ls"},
		Short:   "List the registered generators",
		Long:    "List the generators in subscription order with their settings.",
		Args:    cobra.NoArgs,
		RunE:    runGenerators,
	}
}

func runGenerators(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	// Nothing is written while listing
	reg, err := newRegistry(cfg, render.NewWriter(cfg.Generation.OutputDir))
	if err != nil {
		return err
	}

	var views []generatorView
	for _, g := range reg.Generators() {
		st := g.Settings()
		v := generatorView{
			ID:          g.ID(),
			Version:     st.Version,
			Engine:      st.Engine,
			Description: st.Description,
			Templates:   st.Templates,
		}
		for name := range st.Fields {
			v.Fields = append(v.Fields, name)
		}
		slices.Sort(v.Fields)
		views = append(views, v)
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), views)
	}

	data := pterm.TableData{{"ID", "VERSION", "ENGINE", "DESCRIPTION"}}
	for _, v := range views {
		data = append(data, []string{v.ID, v.Version, v.Engine, v.Description})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	pterm.Fprintln(cmd.OutOrStdout(), table)
	for _, v := range views {
		if len(v.Fields) > 0 {
			pterm.Fprintln(cmd.OutOrStdout(), pterm.Gray(v.ID+" fields: "+strings.Join(v.Fields, ", ")))
		}
	}
	return nil
}
