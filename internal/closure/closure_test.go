package closure

import (
	"slices"
	"testing"

	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/sema"
	"wsc/internal/symbols"
)

func analyze(t *testing.T, mod *hir.Module) (*sema.Result, *Analysis) {
	t.Helper()
	bag := diag.NewBag(50)
	res, err := sema.Check(mod, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	return res, Analyze(res)
}

func names(res *sema.Result, syms []symbols.SymbolID) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = res.Table.Name(s)
	}
	return out
}

func TestCapturesFirstUseOrderAndIdempotent(t *testing.T) {
	inner := hir.Lambda(nil, hir.Bin(hir.Ref("c"), "+", hir.Ref("a")))
	outer := hir.LambdaBlock([]*hir.Param{hir.P("p", symbols.TypeNumber)},
		hir.Var("own", "", hir.Bin(hir.Ref("b"), "+", hir.Ref("p"))),
		hir.Var("f", "", inner),
		hir.Return(hir.Bin(hir.Ref("a"), "+", hir.Ref("g"))),
	)
	mod := &hir.Module{
		Globals: []*hir.Global{{Name: "g", Type: symbols.TypeNumber}},
		Rules: []*hir.Rule{hir.GlobalRule("r",
			hir.Var("a", symbols.TypeNumber, hir.Num(1)),
			hir.Var("b", symbols.TypeNumber, hir.Num(2)),
			hir.Var("c", symbols.TypeNumber, hir.Num(3)),
			hir.Var("l", "", outer),
			hir.Do(hir.Call("Log", hir.Ref("l"))),
		)},
	}
	res, _ := analyze(t, mod)

	first := Captures(res, outer)
	if got, want := names(res, first), []string{"b", "c", "a"}; !slices.Equal(got, want) {
		t.Fatalf("captures = %v, want %v", got, want)
	}
	if again := Captures(res, outer); !slices.Equal(first, again) {
		t.Fatalf("second analysis differs: %v vs %v", first, again)
	}
	if got, want := names(res, Captures(res, inner)), []string{"c", "a"}; !slices.Equal(got, want) {
		t.Fatalf("inner captures = %v, want %v", got, want)
	}
}

func TestClassification(t *testing.T) {
	expr := hir.Lambda([]*hir.Param{hir.P("x", symbols.TypeNumber)}, hir.Bin(hir.Ref("x"), "*", hir.Num(2)))
	block := hir.LambdaBlock(nil, hir.Do(hir.Call("Wait", hir.Num(1))))
	stored := hir.Lambda(nil, hir.This())
	reassigned := hir.Lambda(nil, hir.Num(1))
	passed := hir.Lambda(nil, hir.Num(2))
	mod := &hir.Module{
		Funcs: []*hir.Func{hir.Fn("run", []*hir.Param{hir.P("cb", symbols.TypeLambda)}, "", hir.Do(hir.Invoke(hir.Ref("cb"))))},
		Rules: []*hir.Rule{hir.PlayerRule("r",
			hir.Var("double", "", expr),
			hir.Do(hir.Call("Log", hir.Invoke(hir.Ref("double"), hir.Num(4)))),
			hir.Var("tick", "", block),
			hir.Do(hir.Invoke(hir.Ref("tick"))),
			hir.Var("list", "", hir.Array(stored)),
			hir.Var("re", "", reassigned),
			hir.Set("re", hir.Lambda(nil, hir.Num(3))),
			hir.Do(hir.Invoke(hir.Ref("re"))),
			hir.Do(hir.Call("run", passed)),
		)},
	}
	_, a := analyze(t, mod)

	cases := []struct {
		name  string
		lam   *hir.Expr
		class Class
	}{
		{"expression invoked directly", expr, Inline},
		{"block invoked directly", block, InlineBlock},
		{"stored in an array", stored, Portable},
		{"variable reassigned", reassigned, Portable},
		{"passed as argument", passed, Portable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Info(tc.lam).Class; got != tc.class {
				t.Fatalf("class = %s, want %s", got, tc.class)
			}
		})
	}

	ids := make([]int, 0, len(a.Portable()))
	for _, info := range a.Portable() {
		ids = append(ids, info.ID)
	}
	if !slices.Equal(ids, []int{1, 2, 3, 4}) {
		t.Fatalf("portable ids = %v", ids)
	}
	info := a.Info(stored)
	if !info.This || info.CaptureIndex(0) != 2 {
		t.Fatalf("stored lambda should bind the player: %+v", info)
	}
}
