package workshop

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const commentColumn = 56

// FormatValue renders a value tree in workshop notation.
func FormatValue(v *Value) string {
	if v == nil {
		return "Null"
	}
	switch v.Kind {
	case ValNull:
		return "Null"
	case ValNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case ValArray:
		return "Array(" + formatArgs(v.Args) + ")"
	case ValVar:
		return v.Var.String()
	case ValEventPlayer:
		return "Event Player"
	case ValIndex:
		return FormatValue(v.Args[0]) + "[" + FormatValue(v.Args[1]) + "]"
	case ValLastOf:
		return "Last Of(" + FormatValue(v.Args[0]) + ")"
	case ValCountOf:
		return "Count Of(" + FormatValue(v.Args[0]) + ")"
	case ValSlice:
		return "Array Slice(" + formatArgs(v.Args) + ")"
	case ValAppend:
		return "Append To Array(" + formatArgs(v.Args) + ")"
	case ValArith, ValCompare:
		return "(" + FormatValue(v.Args[0]) + " " + v.Op + " " + FormatValue(v.Args[1]) + ")"
	case ValAnd:
		return "(" + FormatValue(v.Args[0]) + " && " + FormatValue(v.Args[1]) + ")"
	case ValOr:
		return "(" + FormatValue(v.Args[0]) + " || " + FormatValue(v.Args[1]) + ")"
	case ValNot:
		return "!" + FormatValue(v.Args[0])
	case ValCall:
		return v.Name + "(" + formatArgs(v.Args) + ")"
	}
	return "?"
}

func formatArgs(args []*Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatValue(a)
	}
	return strings.Join(parts, ", ")
}

// FormatAction renders one action without indentation or comment.
func FormatAction(a *Action) string {
	switch a.Kind {
	case ActSetVar:
		return fmt.Sprintf("%s = %s;", a.Var, FormatValue(a.Value))
	case ActSetVarAtIndex:
		return fmt.Sprintf("%s[%s] = %s;", a.Var, FormatValue(a.Index), FormatValue(a.Value))
	case ActWhile:
		return "While(" + FormatValue(a.Cond) + ");"
	case ActFor:
		space := "Global"
		if a.Var.Space == SpacePlayer {
			space = "Player"
		}
		return fmt.Sprintf("For %s Variable(%s, %s, %s, %s);", space, a.Var.Name,
			FormatValue(a.Value), FormatValue(a.Stop), FormatValue(a.Step))
	case ActIf:
		return "If(" + FormatValue(a.Cond) + ");"
	case ActElseIf:
		return "Else If(" + FormatValue(a.Cond) + ");"
	case ActElse:
		return "Else;"
	case ActEnd:
		return "End;"
	case ActBreak:
		return "Break;"
	case ActContinue:
		return "Continue;"
	case ActSkip:
		return fmt.Sprintf("Skip(%d);", a.Count)
	case ActSkipIf:
		return fmt.Sprintf("Skip If(%s, %d);", FormatValue(a.Cond), a.Count)
	case ActCallSubroutine:
		return "Call Subroutine(" + a.Name + ");"
	case ActAbort:
		return "Abort;"
	case ActAbortIf:
		return "Abort If(" + FormatValue(a.Cond) + ");"
	case ActCall:
		return a.Name + "(" + formatArgs(a.Args) + ");"
	case ActSkipStart:
		return "<skip " + FormatValue(a.Cond) + ">"
	case ActSkipEnd:
		return "<land>"
	}
	return "?"
}

// PrintActions writes an indented listing, one action per line, with
// comments aligned on a fixed display column.
func PrintActions(w io.Writer, actions []*Action, indent int) error {
	depth := indent
	for _, a := range actions {
		if a.Kind == ActEnd || a.Kind == ActElse || a.Kind == ActElseIf {
			depth--
		}
		if depth < indent {
			depth = indent
		}
		line := strings.Repeat("    ", depth) + FormatAction(a)
		if a.Comment != "" {
			pad := commentColumn - runewidth.StringWidth(line)
			if pad < 1 {
				pad = 1
			}
			line += strings.Repeat(" ", pad) + "// " + a.Comment
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
		if a.Kind.OpensBlock() || a.Kind == ActElse || a.Kind == ActElseIf {
			depth++
		}
	}
	return nil
}

// PrintProgram writes every rule of p.
func PrintProgram(w io.Writer, p *Program) error {
	for i, r := range p.Rules {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		title := r.Name
		if r.Event == EventSubroutine {
			title += " [" + r.Subroutine + "]"
		}
		if _, err := fmt.Fprintf(w, "rule(%q) {\n    event { %s; }\n", title, r.Event); err != nil {
			return err
		}
		if len(r.Conditions) > 0 {
			if _, err := io.WriteString(w, "    conditions {\n"); err != nil {
				return err
			}
			for _, c := range r.Conditions {
				if _, err := fmt.Fprintf(w, "        %s == True;\n", FormatValue(c)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "    }\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "    actions {\n"); err != nil {
			return err
		}
		if err := PrintActions(w, r.Actions, 2); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "    }\n}\n"); err != nil {
			return err
		}
	}
	return nil
}
