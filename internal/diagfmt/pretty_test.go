package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"wsc/internal/diag"
	"wsc/internal/source"
)

func sampleBag(fs *source.FileSet) *diag.Bag {
	id := fs.Add("/home/user/project/rules/main.wsc.yaml", []byte("rules:\n  - name: main\n    body: [{assign: {target: mising, value: 1}}]\n"))
	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.SemaUnresolvedSymbol, source.Span{File: id, Line: 3, Col: 30}, `"mising" is not defined`).
		WithNote(source.Span{File: id, Line: 2, Col: 5}, "in rule main").
		WithFix(`did you mean "missing"?`, diag.FixEdit{Span: source.Span{File: id, Line: 3, Col: 30}, NewText: "missing"})
	bag.Add(d)
	bag.Add(diag.New(diag.SevWarning, diag.LowSlotOverflow, source.Span{File: id}, "overflow"))
	return bag
}

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	bag := sampleBag(fs)
	for _, tc := range []struct {
		name string
		mode PathMode
		want string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/rules/main.wsc.yaml:3:30"},
		{"relative", PathModeRelative, "rules/main.wsc.yaml:3:30"},
		{"basename", PathModeBasename, "main.wsc.yaml:3:30"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: tc.mode, BaseDir: "/home/user/project"}); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			if !strings.Contains(out, tc.want+": ERROR SEM3002: \"mising\" is not defined") {
				t.Fatalf("output:\n%s", out)
			}
			if !strings.Contains(out, "WARNING LOW4001: overflow") {
				t.Fatalf("warning missing:\n%s", out)
			}
		})
	}
}

func TestPrettySourceNotesFixes(t *testing.T) {
	fs := source.NewFileSet()
	bag := sampleBag(fs)
	var buf bytes.Buffer
	opts := PrettyOpts{PathMode: PathModeBasename, ShowSource: true, ShowNotes: true, ShowFixes: true}
	if err := Pretty(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 5 {
		t.Fatalf("output:\n%s", buf.String())
	}
	if lines[1] != " 3 |     body: [{assign: {target: mising, value: 1}}]" {
		t.Fatalf("source line = %q", lines[1])
	}
	caret := strings.Index(lines[2], "^")
	if lines[1][caret:caret+6] != "mising" {
		t.Fatalf("caret at %d points at %q", caret, lines[1][caret:])
	}
	if lines[3] != "  note: main.wsc.yaml:2:5: in rule main" {
		t.Fatalf("note = %q", lines[3])
	}
	if lines[4] != `  help: did you mean "missing"? (replace with "missing")` {
		t.Fatalf("fix = %q", lines[4])
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	bag := sampleBag(fs)
	var plain, colored bytes.Buffer
	if err := Pretty(&plain, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := Pretty(&colored, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output has escapes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escapes")
	}
}

func TestJSON(t *testing.T) {
	fs := source.NewFileSet()
	bag := sampleBag(fs)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename, IncludeNotes: true, IncludeFixes: true, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3002" || d.Severity != "ERROR" || d.Location != (LocationJSON{File: "main.wsc.yaml", Line: 3, Col: 30}) {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 || len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "missing" {
		t.Fatalf("notes/fixes = %+v %+v", d.Notes, d.Fixes)
	}
}

func TestSummary(t *testing.T) {
	fs := source.NewFileSet()
	if got := Summary(sampleBag(fs)); got != "1 error, 1 warning" {
		t.Fatalf("summary = %q", got)
	}
	if got := Summary(diag.NewBag(0)); got != "0 errors, 0 warnings" {
		t.Fatalf("summary = %q", got)
	}
}
