package display

import (
	"io"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/loom/artifact"
	"github.com/teranos/loom/generation"
)

// ResultView is the JSON shape of a finished run.
type ResultView struct {
	ID         string         `json:"id"`
	Success    bool           `json:"success"`
	Errors     []string       `json:"errors"`
	Warnings   []string       `json:"warnings"`
	Infos      []string       `json:"infos"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Artifacts  int            `json:"artifacts"`
	Tree       *artifact.Node `json:"tree,omitempty"`
}

// NewResultView summarizes r.
func NewResultView(r *generation.Result) ResultView {
	v := ResultView{
		ID:         r.ID,
		Success:    r.Success,
		Errors:     r.Errors,
		Warnings:   r.Warnings,
		Infos:      r.Infos,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Root != nil {
		v.Artifacts = artifact.Count(r.Root.Artifact)
		tree := artifact.Snapshot(r.Root.Artifact)
		v.Tree = &tree
	}
	return v
}

// PrintResult renders a run summary: the artifact tree followed by every
// recorded message.
func PrintResult(w io.Writer, r *generation.Result) error {
	if r.Root != nil {
		tree, err := pterm.DefaultTree.WithRoot(treeNode(r.Root.Artifact)).Srender()
		if err != nil {
			return err
		}
		pterm.Fprint(w, tree)
	}

	for _, msg := range r.Infos {
		pterm.Fprintln(w, pterm.Blue("info  ")+msg)
	}
	for _, msg := range r.Warnings {
		pterm.Fprintln(w, pterm.Yellow("warn  ")+msg)
	}
	for _, msg := range r.Errors {
		pterm.Fprintln(w, pterm.Red("error ")+msg)
	}

	if r.Success {
		pterm.Fprintln(w, pterm.LightGreen("Generation succeeded")+pterm.Gray(" in "+r.Duration.Round(time.Millisecond).String()))
	} else {
		pterm.Fprintln(w, pterm.Red("Generation failed")+pterm.Gray(" in "+r.Duration.Round(time.Millisecond).String()))
	}
	return nil
}

func treeNode(a *artifact.Artifact) pterm.TreeNode {
	label := a.Name()
	if a.Kind() != artifact.KindFile {
		label = pterm.LightMagenta(label) + pterm.Gray(" ("+string(a.Kind())+")")
	}
	node := pterm.TreeNode{Text: label}
	for _, c := range a.Children() {
		node.Children = append(node.Children, treeNode(c))
	}
	return node
}
