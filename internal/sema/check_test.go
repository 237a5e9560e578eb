package sema

import (
	"strings"
	"testing"

	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/symbols"
)

func check(t *testing.T, mod *hir.Module) (*Result, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	res, err := Check(mod, Options{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("internal error: %v", err)
	}
	return res, bag
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func wantCodes(t *testing.T, bag *diag.Bag, want ...diag.Code) {
	t.Helper()
	got := codes(bag)
	if len(got) != len(want) {
		t.Fatalf("diagnostics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diagnostics = %v, want %v", got, want)
		}
	}
}

func TestResolvesLocalsParamsAndGlobals(t *testing.T) {
	use := hir.Ref("g")
	param := hir.Ref("n")
	local := hir.Ref("x")
	mod := &hir.Module{
		Globals: []*hir.Global{{Name: "g", Type: symbols.TypeNumber}},
		Funcs: []*hir.Func{hir.Fn("f", []*hir.Param{hir.P("n", symbols.TypeNumber)}, symbols.TypeNumber,
			hir.Var("x", "", hir.Bin(use, "+", param)),
			hir.Return(local),
		)},
	}
	res, bag := check(t, mod)
	wantCodes(t, bag)

	if got := res.Table.Name(res.Refs[use]); got != "g" || res.IsLocal(res.Refs[use]) {
		t.Fatalf("g resolved to %q (local=%v)", got, res.IsLocal(res.Refs[use]))
	}
	if !res.IsLocal(res.Refs[param]) || !res.IsLocal(res.Refs[local]) {
		t.Fatalf("n and x should be locals")
	}
	if res.TypeOf(local) != symbols.TypeNumber {
		t.Fatalf("x has type %s, want number", res.TypeOf(local))
	}
}

func TestUnresolvedNameSuggestsNeighbour(t *testing.T) {
	mod := &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r",
		hir.Var("count", symbols.TypeNumber, hir.Num(1)),
		hir.Do(hir.Call("Log", hir.Ref("cuont"))),
	)}}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaUnresolvedSymbol)
	d := bag.Items()[0]
	if len(d.Fixes) != 1 || !strings.Contains(d.Fixes[0].Title, `"count"`) {
		t.Fatalf("fixes = %+v, want a count suggestion", d.Fixes)
	}
}

func TestLoopControlOutsideLoop(t *testing.T) {
	mod := &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r",
		hir.Break(),
		hir.While(hir.Bool(true), hir.Break(), hir.Continue()),
		hir.Continue(),
	)}}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaBreakOutsideLoop, diag.SemaContinueOutsideLoop)
}

func TestInvalidLoopInitializers(t *testing.T) {
	cases := []struct {
		name string
		loop *hir.Stmt
	}{
		{"for init is a call", hir.For(hir.Do(hir.Call("Wait", hir.Num(1))), hir.Bool(true), nil)},
		{"for iter is a declaration", hir.For(nil, hir.Bool(true), hir.Var("i", "", hir.Num(0)))},
		{"auto-for without initializer", &hir.Stmt{Kind: hir.StmtAutoFor, Data: &hir.AutoForData{Stop: hir.Num(3), Step: hir.Num(1), Body: hir.Body()}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bag := check(t, &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r", tc.loop)}})
			wantCodes(t, bag, diag.SemaInvalidLoopInit)
		})
	}
}

func TestOverloadSelection(t *testing.T) {
	byNum := hir.Call("f", hir.Num(1))
	byBool := hir.Call("f", hir.Bool(true))
	ambiguous := hir.Call("f", hir.Ref("v"))
	missing := hir.Call("f", hir.Array())
	mod := &hir.Module{
		Funcs: []*hir.Func{
			hir.Fn("f", []*hir.Param{hir.P("a", symbols.TypeNumber)}, ""),
			hir.Fn("f", []*hir.Param{hir.P("a", symbols.TypeBool)}, ""),
		},
		Rules: []*hir.Rule{hir.GlobalRule("r",
			hir.Var("v", symbols.TypeAny, hir.Null()),
			hir.Do(byNum),
			hir.Do(byBool),
			hir.Do(ambiguous),
			hir.Do(missing),
		)},
	}
	res, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaAmbiguousOverload, diag.SemaNoOverload)
	if res.Calls[byNum] == res.Calls[byBool] || !res.Calls[byNum].IsValid() || !res.Calls[byBool].IsValid() {
		t.Fatalf("calls resolved to %d and %d", res.Calls[byNum], res.Calls[byBool])
	}
	if p := res.Table.Symbol(res.Calls[byBool]).Signature.Params[0]; p != symbols.TypeBool {
		t.Fatalf("f(true) picked f(%s)", p)
	}
}

func TestActionUsedAsValue(t *testing.T) {
	mod := &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r",
		hir.Do(hir.Call("Wait", hir.Num(1))),
		hir.Var("x", "", hir.Call("Wait", hir.Num(1))),
	)}}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaActionAsValue)
}

func TestNamespaceAccess(t *testing.T) {
	mod := &hir.Module{
		Namespaces: []*hir.Namespace{{
			Name: "util",
			Globals: []*hir.Global{
				{Name: "secret", Access: symbols.AccessPrivate, Type: symbols.TypeNumber},
				{Name: "shared", Type: symbols.TypeNumber},
			},
		}},
		Rules: []*hir.Rule{hir.GlobalRule("r",
			hir.Do(hir.Call("Log", hir.Ref("util.shared"))),
			hir.Do(hir.Call("Log", hir.Ref("util.secret"))),
			hir.Do(hir.Call("Log", hir.Ref("util.nothing"))),
		)},
	}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaInaccessible, diag.SemaUnresolvedSymbol)
}

func TestReadOnlyAndCapturedAssignments(t *testing.T) {
	mod := &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r",
		hir.Var("x", symbols.TypeNumber, hir.Num(0)),
		hir.Foreach("e", hir.Array(hir.Num(1)), hir.Set("e", hir.Num(2))),
		hir.Var("l", "", hir.LambdaBlock(nil,
			hir.Set("x", hir.Num(1)),
			hir.Var("y", "", hir.Num(0)),
			hir.Set("y", hir.Num(1)),
		)),
	)}}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaAssignReadOnly, diag.SemaAssignReadOnly)
}

func TestReturnValueNeedsFunctionBody(t *testing.T) {
	mod := &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r",
		hir.Nested(hir.Return(hir.Num(1))),
		hir.Var("l", "", hir.LambdaBlock(nil, hir.Return(hir.Num(2)))),
		hir.Return(nil),
	)}}
	res, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaReturnOutsideFunc)

	lam := mod.Rules[0].Body.Stmts[1].Data.(*hir.VarData).Init
	scope := res.Table.EnclosingBody(res.BlockScopes[lam.Data.(*hir.LambdaData).Body])
	if scope != res.LambdaScopes[lam] {
		t.Fatalf("lambda body resolves to scope %d, want %d", scope, res.LambdaScopes[lam])
	}
	if k := res.Table.Scope(scope).Kind; k != symbols.ScopeLambda {
		t.Fatalf("lambda body resolves to %v scope", k)
	}
}

func TestInvokeTracing(t *testing.T) {
	lam := hir.Lambda([]*hir.Param{hir.P("a", symbols.TypeNumber)}, hir.Ref("a"))
	traced := hir.Invoke(hir.Ref("alias"), hir.Num(1))
	untraced := hir.Invoke(hir.Ref("cb"), hir.Num(1))
	wrongArity := hir.Invoke(hir.Ref("l"))
	mod := &hir.Module{
		Funcs: []*hir.Func{hir.Fn("apply", []*hir.Param{hir.P("cb", symbols.TypeLambda)}, "",
			hir.Do(untraced),
		)},
		Rules: []*hir.Rule{hir.GlobalRule("r",
			hir.Var("l", "", lam),
			hir.Var("alias", "", hir.Ref("l")),
			hir.Do(traced),
			hir.Do(wrongArity),
		)},
	}
	res, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaLambdaSourceUnknown, diag.SemaLambdaArity)
	if res.Invokes[traced] != lam {
		t.Fatalf("invoke through alias not traced to its lambda")
	}
	if _, ok := res.Invokes[untraced]; ok {
		t.Fatalf("parameter invoke should stay untraced")
	}
	if res.LambdaOwner[lam] != RuleNode(mod.Rules[0]) {
		t.Fatalf("lambda owner = %s", res.Describe(res.LambdaOwner[lam]))
	}
	g := res.Graph(false)
	if !g.Has(DispatchNode) || len(g.Successors(FuncNode(res.Funcs[0].Sym))) != 1 {
		t.Fatalf("untraced invoke should reach the dispatcher")
	}
	if res.Graph(true).Has(DispatchNode) {
		t.Fatalf("traced graph must not contain the dispatcher")
	}
}

func TestRecursiveLambda(t *testing.T) {
	lam := hir.Lambda(nil, hir.Call("g"))
	mod := &hir.Module{Funcs: []*hir.Func{
		hir.Fn("f", nil, "",
			hir.Var("l", "", lam),
			hir.Do(hir.Invoke(hir.Ref("l"))),
		),
		hir.Fn("g", nil, symbols.TypeNumber, hir.Do(hir.Call("f")), hir.Return(hir.Num(0))),
	}}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaRecursiveLambda)
}

func TestRestrictedReachability(t *testing.T) {
	direct := hir.Call("Kill")
	viaFunc := hir.Call("hurt")
	mod := &hir.Module{
		Funcs: []*hir.Func{hir.Fn("hurt", nil, "", hir.Do(hir.Call("Kill")))},
		Rules: []*hir.Rule{
			hir.GlobalRule("global", hir.Do(direct), hir.Do(viaFunc), hir.Do(hir.Call("Log", hir.This()))),
			hir.PlayerRule("player", hir.Do(hir.Call("hurt")), hir.Do(hir.Call("Log", hir.This()))),
		},
	}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaRestrictedCall, diag.SemaRestrictedCall, diag.SemaRestrictedCall)
	items := bag.Items()
	if items[0].Primary != direct.Span || !strings.Contains(items[2].Message, "hurt") {
		t.Fatalf("unexpected restricted diagnostics: %+v", items)
	}
}

func TestPlayerInitialiserMayUseThis(t *testing.T) {
	mod := &hir.Module{Globals: []*hir.Global{
		{Name: "score", Player: true, Init: hir.Call("Score", hir.This())},
		{Name: "bad", Init: hir.Call("Score", hir.This())},
	}}
	res, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaRestrictedCall)
	if !res.UsesThis[RuleNode(res.InitPlayer)] {
		t.Fatalf("player initialiser should be marked as using this")
	}
}

func TestShadowingWarns(t *testing.T) {
	mod := &hir.Module{Rules: []*hir.Rule{hir.GlobalRule("r",
		hir.Var("x", "", hir.Num(0)),
		hir.Nested(hir.Var("x", "", hir.Num(1))),
	)}}
	_, bag := check(t, mod)
	wantCodes(t, bag, diag.SemaShadowing)
	if bag.HasErrors() {
		t.Fatalf("shadowing must only warn")
	}
}

func TestSuggest(t *testing.T) {
	cases := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"cuont", []string{"count", "amount"}, "count"},
		{"x", []string{"x"}, ""},
		{"health", []string{"wealth", "heal"}, "wealth"},
		{"speed", []string{"damage"}, ""},
	}
	for _, tc := range cases {
		if got := suggest(tc.name, tc.candidates); got != tc.want {
			t.Fatalf("suggest(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
