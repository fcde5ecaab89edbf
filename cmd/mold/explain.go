// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/kballard/go-shellquote"

	"github.com/moldrun/mold/internal/mold"
)

// explain prints how each target resolves.
func (app *App) explain(ctx context.Context, m *mold.Mold, targets []string) error {
	p := newPalette(app.stdout)
	for i, name := range targets {
		ex, err := m.Explain(ctx, name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(app.stdout)
		}
		app.writeExplanation(app.stdout, p, ex)
	}
	return nil
}

func (app *App) writeExplanation(w io.Writer, p palette, ex *mold.Explanation) {
	field := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "  %s %s\n", p.key.Render(fmt.Sprintf("%-10s", key+":")), value)
	}

	fmt.Fprintln(w, p.title.Render(ex.Name))
	if ex.Help != "" {
		fmt.Fprint(w, indent(app.renderHelp(ex.Help), "  "))
	}
	field("kind", string(ex.Kind))
	field("source", ex.Source)
	field("requires", strings.Join(ex.Requires, ", "))
	field("dir", ex.Dir)
	field("modules", strings.Join(ex.ModulePath, " > "))
	field("declared", ex.SearchDir)

	task := ex.Task
	if task == nil {
		return
	}
	if task.IsListing() {
		field("recipes", fmt.Sprintf("%d", len(task.Listing)))
		return
	}
	field("workdir", task.WorkDir)
	field("argv", shellquote.Join(task.Args...))
	if ex.Script != "" {
		fmt.Fprintf(w, "  %s\n", p.key.Render("script:"))
		fmt.Fprint(w, indent(ex.Script, "    "))
	}
	if task.Vars.Len() > 0 {
		fmt.Fprintf(w, "  %s\n", p.key.Render("vars:"))
		for k, v := range task.Vars.All() {
			fmt.Fprintf(w, "    %s=%s\n", k, p.muted.Render(shellquote.Join(v)))
		}
	}
}

// renderHelp renders a recipe's help text as markdown on terminals.
func (app *App) renderHelp(help string) string {
	if !isTerminal(app.stdout) {
		return help + "\n"
	}
	out, err := glamour.Render(help, glamourStyle(app.colorScheme, app.stdout))
	if err != nil {
		return help + "\n"
	}
	return strings.TrimLeft(out, "\n")
}

func indent(text, prefix string) string {
	var b strings.Builder
	for line := range strings.Lines(text) {
		b.WriteString(prefix)
		b.WriteString(line)
	}
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
