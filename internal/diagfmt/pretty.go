package diagfmt

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"wsc/internal/diag"
	"wsc/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
		note:   mk(color.FgCyan),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics for humans, in bag order:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	   3 | <source line>
//	     |     ^
//	  note: <path>:<line>:<col>: <msg>
//	  help: <fix title>
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s %s: %s\n",
		location(d.Primary, fs, opts),
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)
	if opts.ShowSource {
		writeSource(&buf, d.Primary, fs, p)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			if n.Span.IsZero() {
				fmt.Fprintf(&buf, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
				continue
			}
			fmt.Fprintf(&buf, "  %s %s: %s\n", p.note.Sprint("note:"), location(n.Span, fs, opts), n.Msg)
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(&buf, "  %s %s", p.note.Sprint("help:"), f.Title)
			for _, e := range f.Edits {
				fmt.Fprintf(&buf, " (replace with %q)", e.NewText)
			}
			buf.WriteByte('\n')
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func location(sp source.Span, fs *source.FileSet, opts PrettyOpts) string {
	if sp.IsZero() {
		if path := fs.Path(sp.File); path != "" {
			return formatPath(path, opts.PathMode, opts.BaseDir)
		}
		return "<generated>"
	}
	return fmt.Sprintf("%s:%d:%d", formatPath(fs.Path(sp.File), opts.PathMode, opts.BaseDir), sp.Line, sp.Col)
}

// writeSource prints the primary line with a caret under the column. The
// caret is placed by display width so wide runes keep it aligned.
func writeSource(buf *bytes.Buffer, sp source.Span, fs *source.FileSet, p palette) {
	line, ok := sourceLine(fs, sp)
	if !ok {
		return
	}
	line = strings.ReplaceAll(line, "\t", "    ")
	num := fmt.Sprintf("%d", sp.Line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(buf, " %s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), line)

	runes := []rune(line)
	col := int(sp.Col) - 1
	col = max(0, min(col, len(runes)))
	width := runewidth.StringWidth(string(runes[:col]))
	fmt.Fprintf(buf, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", width), p.caret.Sprint("^"))
}

func sourceLine(fs *source.FileSet, sp source.Span) (string, bool) {
	if sp.IsZero() {
		return "", false
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "", false
	}
	lines := strings.Split(string(f.Content), "\n")
	idx := int(sp.Line) - 1
	if idx < 0 || idx >= len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[idx], "\r"), true
}

// Summary is the one-line tally printed after a diagnostics listing.
func Summary(bag *diag.Bag) string {
	errs, warns := bag.Count(diag.SevError), bag.Count(diag.SevWarning)
	return fmt.Sprintf("%d %s, %d %s", errs, plural(errs, "error"), warns, plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
