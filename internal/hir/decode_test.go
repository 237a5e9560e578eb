package hir

import (
	"testing"

	"wsc/internal/diag"
	"wsc/internal/source"
	"wsc/internal/symbols"
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
    event: each_player
    body:
      - assign: {target: result, value: {call: {fn: fact, args: [3]}}}
      - autofor: {decl: {name: i, init: 0}, stop: 3, body: [continue]}
      - break
`

func decode(t *testing.T, src string) (*Module, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("fixture.yaml", []byte(src))
	bag := diag.NewBag(0)
	m, err := Decode(fs.Get(id), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m, bag
}

func TestDecodeFixture(t *testing.T) {
	m, bag := decode(t, factFixture)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(m.Globals) != 1 || m.Globals[0].Init.Kind != ExprNum {
		t.Fatalf("globals = %+v", m.Globals)
	}
	if len(m.Funcs) != 1 {
		t.Fatalf("funcs = %d", len(m.Funcs))
	}
	fact := m.Funcs[0]
	if len(fact.Params) != 1 || fact.Params[0].Name != "n" || fact.Params[0].Type != symbols.TypeNumber {
		t.Fatalf("params = %+v", fact.Params[0])
	}
	if len(fact.Body.Stmts) != 2 || fact.Body.Stmts[0].Kind != StmtIf {
		t.Fatalf("body = %+v", fact.Body.Stmts)
	}
	ret := fact.Body.Stmts[1].Data.(*ReturnData)
	bin := ret.Value.Data.(*BinaryData)
	if bin.Op != "*" || bin.R.Kind != ExprCall {
		t.Fatalf("return = %+v", bin)
	}
	if bin.R.Data.(*CallData).Name() != "fact" {
		t.Fatalf("call target wrong")
	}

	rule := m.Rules[0]
	if rule.Event != EventEachPlayer {
		t.Fatalf("event = %v", rule.Event)
	}
	kinds := []StmtKind{StmtAssign, StmtAutoFor, StmtBreak}
	for i, k := range kinds {
		if rule.Body.Stmts[i].Kind != k {
			t.Fatalf("stmt %d = %v, want %v", i, rule.Body.Stmts[i].Kind, k)
		}
	}
	af := rule.Body.Stmts[1].Data.(*AutoForData)
	if af.Decl == nil || af.Decl.Type != symbols.TypeNumber || af.Step.Data.(*NumData).Value != 1 {
		t.Fatalf("autofor = %+v", af)
	}
	if rule.Body.Stmts[0].Span.Line == 0 {
		t.Fatalf("statements should carry spans")
	}
}

func TestDecodeReportsProblems(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unknown statement", "rules: [{name: r, body: [{jump: 3}]}]", diag.InpUnknownKind},
		{"unknown expression", "globals: [{name: g, init: {weird: 1}}]", diag.InpUnknownKind},
		{"missing cond", "rules: [{name: r, body: [{while: {body: []}}]}]", diag.InpMissingNode},
		{"bad bin", "globals: [{name: g, init: {bin: [1, 2]}}]", diag.InpMalformed},
		{"unnamed global", "globals: [{type: number}]", diag.InpMissingNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := decode(t, tt.src)
			found := false
			for _, d := range bag.Items() {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Fatalf("want %s, got %+v", tt.code.ID(), bag.Items())
			}
		})
	}
}

func TestDecodeTypeTagAndLambda(t *testing.T) {
	src := `
rules:
  - name: r
    body:
      - var: {name: f, type: lambda, init: {lambda: {params: [x], expr: {bin: [x, "+", 1]}}}}
      - expr: !number {invoke: {callee: !lambda f, args: [2]}}
`
	m, bag := decode(t, src)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	stmts := m.Rules[0].Body.Stmts
	lam := stmts[0].Data.(*VarData).Init
	if lam.Kind != ExprLambda || lam.Data.(*LambdaData).IsBlock() {
		t.Fatalf("lambda = %+v", lam)
	}
	inv := stmts[1].Data.(*ExprStmtData).X
	if inv.Kind != ExprInvoke || inv.Type != symbols.TypeNumber {
		t.Fatalf("invoke = %+v", inv)
	}
	if callee := inv.Data.(*InvokeData).Callee; callee.Type != symbols.TypeLambda {
		t.Fatalf("callee type = %q", callee.Type)
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("bad.yaml", []byte("rules: [unclosed"))
	if _, err := Decode(fs.Get(id), diag.NopReporter{}); err == nil {
		t.Fatalf("want error for malformed YAML")
	}
}
