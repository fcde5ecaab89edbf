// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/kballard/go-shellquote"

	"github.com/moldrun/mold/internal/mold"
	"github.com/moldrun/mold/pkg/moldfile"
)

// Color palette shared by all CLI output. The colors target dark terminal
// backgrounds.
const (
	// ColorPrimary is purple, for titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green, for completed actions.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorWarning is amber, for command recipes in listings.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, for recipe names and command lines.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorShell is cyan, for shell recipes in listings.
	ColorShell = lipgloss.Color("#06B6D4")

	// ColorModule is magenta, for module recipes in listings.
	ColorModule = lipgloss.Color("#D946EF")
)

// Base styles. They render through the default renderer, which follows the
// capabilities of stdout.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)
)

type (
	// palette holds the styles bound to one output writer, so that color is
	// only emitted where that writer supports it.
	palette struct {
		title   lipgloss.Style
		muted   lipgloss.Style
		key     lipgloss.Style
		success lipgloss.Style
		kinds   map[moldfile.RecipeKind]lipgloss.Style
	}

	// stylePrinter reports tasks with colors. Command lines go to Out and
	// listings to ListOut; a nil writer disables that output.
	stylePrinter struct {
		out     io.Writer
		listOut io.Writer
		outP    palette
		listP   palette
	}
)

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title:   r.NewStyle().Bold(true).Foreground(ColorPrimary),
		muted:   r.NewStyle().Foreground(ColorMuted),
		key:     r.NewStyle().Foreground(ColorHighlight),
		success: r.NewStyle().Foreground(ColorSuccess),
		kinds: map[moldfile.RecipeKind]lipgloss.Style{
			moldfile.KindCommand: r.NewStyle().Foreground(ColorWarning),
			moldfile.KindShell:   r.NewStyle().Foreground(ColorShell),
			moldfile.KindModule:  r.NewStyle().Foreground(ColorModule),
		},
	}
}

func newStylePrinter(out, listOut io.Writer) *stylePrinter {
	p := &stylePrinter{out: out, listOut: listOut}
	if out != nil {
		p.outP = newPalette(out)
	}
	if listOut != nil {
		p.listP = newPalette(listOut)
	}
	return p
}

// Command implements execute.Printer.
func (p *stylePrinter) Command(name string, args []string) {
	if p.out == nil {
		return
	}
	fmt.Fprintf(p.out, "%s %s %s\n",
		p.outP.title.Render("mold "+name),
		p.outP.muted.Render("$"),
		p.outP.key.Render(shellquote.Join(args...)))
}

// Listing implements execute.Printer. Module recipes carry a trailing slash
// since their own recipes are reached through them.
func (p *stylePrinter) Listing(name string, recipes []mold.RecipeInfo) {
	if p.listOut == nil {
		return
	}
	fmt.Fprintln(p.listOut, p.listP.title.Render(name+":"))
	for _, r := range recipes {
		label := r.Name
		if r.Kind == moldfile.KindModule {
			label += "/"
		}
		styled := p.listP.kinds[r.Kind].Render(fmt.Sprintf("%-20s", label))
		if r.Help == "" {
			fmt.Fprintf(p.listOut, "  %s\n", styled)
			continue
		}
		fmt.Fprintf(p.listOut, "  %s %s\n", styled, p.listP.muted.Render(r.Help))
	}
}
