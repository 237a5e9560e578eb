package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"wsc/internal/diag"
	"wsc/internal/diagfmt"
	"wsc/internal/driver"
	"wsc/internal/observ"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	cachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

func prettyOpts(source bool) diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:      !color.NoColor,
		PathMode:   diagfmt.PathModeRelative,
		ShowSource: source,
		ShowNotes:  true,
		ShowFixes:  true,
	}
}

func style(s lipgloss.Style) lipgloss.Style {
	if color.NoColor {
		return lipgloss.NewStyle()
	}
	return s
}

// renderSummary prints one line per fixture: status, rule and subroutine
// counts, action count and diagnostics tally.
func renderSummary(results []*driver.Result) string {
	var b strings.Builder
	bag := diag.NewBag(0)
	for _, res := range results {
		bag.Merge(res.Bag)
		status := style(okStyle).Render("ok")
		detail := ""
		switch {
		case res.Failed():
			status = style(failStyle).Render("failed")
		case res.Cached:
			status = style(cachedStyle).Render("cached")
		}
		if !res.Failed() {
			p := res.Program
			detail = fmt.Sprintf("%d rules, %d subroutines, %d actions, %d/%d slots",
				len(p.Rules)-len(p.Subroutines), len(p.Subroutines), p.ActionCount(), p.GlobalSlots, p.PlayerSlots)
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			lipgloss.NewStyle().Width(8).Render(status),
			filepath.ToSlash(res.Path),
			style(dimStyle).Render(detail))
	}
	fmt.Fprintf(&b, "%s", style(headerStyle).Render(diagfmt.Summary(bag)))
	return b.String()
}

func renderTimings(r observ.Report) string {
	var b strings.Builder
	b.WriteString(style(headerStyle).Render("timings") + "\n")
	name := lipgloss.NewStyle().Width(24)
	for _, p := range r.Phases {
		fmt.Fprintf(&b, "  %s %8.2f ms", name.Render(p.Name), p.DurationMS)
		if p.Note != "" {
			b.WriteString(style(dimStyle).Render("  " + p.Note))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %s %8.2f ms\n", name.Render("total"), r.TotalMS)
	return b.String()
}
