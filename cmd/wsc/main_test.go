package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wsc/internal/diag"
	"wsc/internal/project"
	"wsc/internal/source"
)

func TestColorEnabled(t *testing.T) {
	cases := []struct {
		mode string
		tty  bool
		want bool
	}{
		{"auto", true, true},
		{"auto", false, false},
		{"", true, true},
		{"on", false, true},
		{"OFF", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			got, err := colorEnabled(tc.mode, tc.tty)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("colorEnabled(%q, %v) = %v, want %v", tc.mode, tc.tty, got, tc.want)
			}
		})
	}
	if _, err := colorEnabled("sometimes", true); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestFilterBag(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevWarning, diag.LowAutoForFallback, source.Span{}, "fallback"))
	bag.Add(diag.New(diag.SevInfo, diag.LowSlotOverflow, source.Span{}, "overflow"))
	bag.Add(diag.NewError(diag.SemaUnresolvedSymbol, source.Span{}, "missing"))

	quiet := filterBag(bag, true, false)
	if quiet.Len() != 1 || !quiet.HasErrors() {
		t.Fatalf("no-warnings kept %d items", quiet.Len())
	}

	strict := filterBag(bag, false, true)
	if strict.Count(diag.SevError) != 2 {
		t.Fatalf("warnings-as-errors: %d errors, want 2", strict.Count(diag.SevError))
	}
	if bag.Count(diag.SevError) != 1 {
		t.Fatalf("filterBag mutated its input")
	}
}

func TestInitWritesLoadableProject(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "demo")

	var out bytes.Buffer
	initCmd.SetOut(&out)
	if err := runInit(initCmd, []string{target}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "main.wsc.yaml") {
		t.Fatalf("unexpected output: %q", out.String())
	}
	m, ok, err := project.Load(target)
	if err != nil || !ok {
		t.Fatalf("load manifest: %v", err)
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("package name = %q", m.Config.Package.Name)
	}
	if _, err := os.Stat(m.MainPath()); err != nil {
		t.Fatalf("main fixture missing: %v", err)
	}

	if err := runInit(initCmd, []string{target}); err == nil {
		t.Fatalf("second init should refuse an existing manifest")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GitCommit: "abc"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := buf.String()
	for _, want := range []string{`"tool": "wsc"`, `"git_commit": "abc"`, `"build_date": "unknown"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in %s", want, got)
		}
	}
	if strings.Contains(got, "git_message") {
		t.Fatalf("message included without --message: %s", got)
	}
}
