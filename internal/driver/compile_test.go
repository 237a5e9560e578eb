package driver

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"wsc/internal/diag"
	"wsc/internal/lower"
	"wsc/internal/observ"
	"wsc/internal/vm"
)

const factFixture = `
globals:
  - {name: result, type: number, init: 0}
funcs:
  - name: fact
    params: ["n: number"]
    result: number
    body:
      - if:
          cond: {bin: [n, "<=", 1]}
          then:
            - return: 1
      - return: {bin: [n, "*", {call: {fn: fact, args: [{bin: [n, "-", 1]}]}}]}
rules:
  - name: main
    body:
      - assign: {target: result, value: {call: {fn: fact, args: [5]}}}
`

const brokenFixture = `
rules:
  - name: main
    body:
      - assign: {target: missing, value: 1}
`

func writeFixture(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(src), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestCompileRunsEndToEnd(t *testing.T) {
	p := writeFixture(t, t.TempDir(), "fact"+FixtureExt, factFixture)
	timer := observ.NewTimer()
	res, err := Compile(context.Background(), p, Options{Lower: lower.DefaultOptions(), Timer: timer})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if res.Failed() {
		t.Fatalf("compile failed: %v", res.Bag.Items())
	}
	if res.Program.BuildID == "" {
		t.Fatalf("program has no build id")
	}
	m := vm.New(res.Program, vm.Options{Players: 1})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if v, _ := m.Global("result"); v.Number() != 120 {
		t.Fatalf("result = %v, want 120", v)
	}
	if len(timer.Report().Phases) < 4 {
		t.Fatalf("phases = %+v", timer.Report().Phases)
	}
}

func TestCompileReportsUserErrors(t *testing.T) {
	p := writeFixture(t, t.TempDir(), "broken"+FixtureExt, brokenFixture)
	res, err := Compile(context.Background(), p, Options{Lower: lower.DefaultOptions()})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !res.Failed() || !res.Bag.HasErrors() {
		t.Fatalf("expected a failed compilation")
	}
	if got := res.Bag.Items()[0].Code; got != diag.SemaUnresolvedSymbol {
		t.Fatalf("code = %v", got)
	}
}

func TestCompileMalformedYAML(t *testing.T) {
	p := writeFixture(t, t.TempDir(), "bad"+FixtureExt, "rules: [\n")
	res, err := Compile(context.Background(), p, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !res.Failed() || res.Bag.Items()[0].Code != diag.InpMalformed {
		t.Fatalf("diagnostics = %v", res.Bag.Items())
	}
}

func TestCompileAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "b"+FixtureExt, brokenFixture)
	writeFixture(t, dir, "a"+FixtureExt, factFixture)
	writeFixture(t, dir, "notes.txt", "ignored")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFixture(t, sub, "c"+FixtureExt, factFixture)

	results, err := CompileAll(context.Background(), dir, Options{Lower: lower.DefaultOptions()}, 2)
	if err != nil {
		t.Fatalf("compile all: %v", err)
	}
	want := []struct {
		name   string
		failed bool
	}{{"a", false}, {"b", true}, {"c", false}}
	if len(results) != len(want) {
		t.Fatalf("results = %d, want %d", len(results), len(want))
	}
	for i, w := range want {
		if got := filepath.Base(results[i].Path); got != w.name+FixtureExt {
			t.Fatalf("result %d = %s, want %s", i, got, w.name)
		}
		if results[i].Failed() != w.failed {
			t.Fatalf("%s failed = %v", w.name, results[i].Failed())
		}
	}
}

func TestDiskCacheHit(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	p := writeFixture(t, t.TempDir(), "fact"+FixtureExt, factFixture)
	opts := Options{Lower: lower.DefaultOptions(), Cache: cache}

	first, err := Compile(context.Background(), p, opts)
	if err != nil || first.Failed() || first.Cached {
		t.Fatalf("first compile: err=%v cached=%v", err, first.Cached)
	}
	second, err := Compile(context.Background(), p, opts)
	if err != nil || !second.Cached {
		t.Fatalf("second compile: err=%v cached=%v", err, second.Cached)
	}
	if second.Program.BuildID != first.Program.BuildID {
		t.Fatalf("cached build id %q, want %q", second.Program.BuildID, first.Program.BuildID)
	}
	if !hasCode(first.Bag, diag.LowPromotedToSubr) {
		t.Fatalf("recursive fixture should warn about promotion: %v", first.Bag.Items())
	}
	if second.Bag.Len() != first.Bag.Len() {
		t.Fatalf("cached diagnostics = %d, want %d", second.Bag.Len(), first.Bag.Len())
	}
	for _, d := range second.Bag.Items() {
		if d.Primary.File != second.File {
			t.Fatalf("cached diagnostic %s points at file %d, want %d", d.Code, d.Primary.File, second.File)
		}
	}
	m := vm.New(second.Program, vm.Options{Players: 1})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run cached program: %v", err)
	}
	if v, _ := m.Global("result"); v.Number() != 120 {
		t.Fatalf("cached result = %v, want 120", v)
	}

	other := opts
	other.Lower.NativeBreak = false
	third, err := Compile(context.Background(), p, other)
	if err != nil || third.Cached {
		t.Fatalf("changed options must miss the cache: err=%v cached=%v", err, third.Cached)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	fourth, err := Compile(context.Background(), p, opts)
	if err != nil || fourth.Cached {
		t.Fatalf("dropped cache must miss: err=%v cached=%v", err, fourth.Cached)
	}
}

func TestDiskCacheSkipsTruncatedBags(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	p := writeFixture(t, t.TempDir(), "fact"+FixtureExt, factFixture)
	opts := Options{Lower: lower.DefaultOptions(), Cache: cache, MaxDiagnostics: 1}

	first, err := Compile(context.Background(), p, opts)
	if err != nil || first.Failed() {
		t.Fatalf("first compile: err=%v", err)
	}
	second, err := Compile(context.Background(), p, opts)
	if err != nil || second.Cached {
		t.Fatalf("a full diagnostics bag must not be cached: err=%v cached=%v", err, second.Cached)
	}
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func TestProgressEvents(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "a"+FixtureExt, factFixture)
	bad := writeFixture(t, dir, "b"+FixtureExt, brokenFixture)
	sink := &recordSink{}
	if _, err := CompileAll(context.Background(), dir, Options{Lower: lower.DefaultOptions(), Progress: sink}, 2); err != nil {
		t.Fatalf("compile all: %v", err)
	}
	byFile := map[string][]Event{}
	for _, ev := range sink.events {
		byFile[ev.File] = append(byFile[ev.File], ev)
	}
	stages := func(evs []Event) []Stage {
		var out []Stage
		for _, ev := range evs {
			out = append(out, ev.Stage)
		}
		return out
	}
	goodEvents := byFile[filepath.ToSlash(good)]
	if got := stages(goodEvents); !slices.Equal(got, []Stage{StageDecode, StageSema, StageLower, StageLower}) {
		t.Fatalf("stages of %s = %v", good, got)
	}
	if last := goodEvents[len(goodEvents)-1]; last.Status != StatusDone {
		t.Fatalf("last status = %v", last.Status)
	}
	badEvents := byFile[filepath.ToSlash(bad)]
	if len(badEvents) == 0 || badEvents[len(badEvents)-1].Status != StatusError {
		t.Fatalf("events of %s = %+v", bad, badEvents)
	}
}
