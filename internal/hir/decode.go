package hir

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"wsc/internal/diag"
	"wsc/internal/source"
	"wsc/internal/symbols"
)

// Decode reads a YAML program fixture. Structural problems are reported to r
// and decoding continues with the rest of the document; only a document that
// is not YAML at all returns an error.
//
// Expressions are either scalars (numbers, true/false, null, or a name) or
// single-key maps such as {bin: [a, "+", 1]} or {call: {fn: f, args: [x]}}.
// Statements are single-key maps: {var: {...}}, {while: {...}}, "break".
func Decode(f *source.File, r diag.Reporter) (*Module, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(f.Content, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	d := &decoder{file: f.ID, r: r}
	m := &Module{Path: f.Path, File: f.ID}
	if root.Kind == 0 || len(root.Content) == 0 {
		return m, nil
	}
	doc := root.Content[0]
	if !d.expect(doc, yaml.MappingNode, "program") {
		return m, nil
	}
	d.eachKey(doc, func(key string, v *yaml.Node) {
		switch key {
		case "namespaces":
			m.Namespaces = decodeList(d, v, d.namespace)
		case "globals":
			m.Globals = decodeList(d, v, d.global)
		case "funcs":
			m.Funcs = decodeList(d, v, d.fn)
		case "rules":
			m.Rules = decodeList(d, v, d.rule)
		default:
			d.unknown(v, "top-level key", key)
		}
	})
	return m, nil
}

type decoder struct {
	file source.FileID
	r    diag.Reporter
}

func (d *decoder) span(n *yaml.Node) source.Span {
	line, err := safecast.Conv[uint32](n.Line)
	if err != nil {
		return source.Span{}
	}
	col, err := safecast.Conv[uint32](n.Column)
	if err != nil {
		return source.Span{}
	}
	return source.Span{File: d.file, Line: line, Col: col}
}

func (d *decoder) errorf(n *yaml.Node, code diag.Code, format string, args ...any) {
	diag.ReportError(d.r, code, d.span(n), fmt.Sprintf(format, args...)).Emit()
}

func (d *decoder) unknown(n *yaml.Node, what, key string) {
	d.errorf(n, diag.InpUnknownKind, "unknown %s %q", what, key)
}

func (d *decoder) expect(n *yaml.Node, kind yaml.Kind, what string) bool {
	if n.Kind == kind {
		return true
	}
	d.errorf(n, diag.InpMalformed, "%s must be a %s", what, kindName(kind))
	return false
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	default:
		return "scalar"
	}
}

// eachKey walks a mapping in document order.
func (d *decoder) eachKey(n *yaml.Node, fn func(key string, v *yaml.Node)) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, n.Content[i+1])
	}
}

// single splits a one-key mapping, or a bare scalar, into kind and payload.
func (d *decoder) single(n *yaml.Node, what string) (string, *yaml.Node, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil, true
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			d.errorf(n, diag.InpMalformed, "%s must have exactly one key", what)
			return "", nil, false
		}
		return n.Content[0].Value, n.Content[1], true
	}
	d.errorf(n, diag.InpMalformed, "%s must be a mapping", what)
	return "", nil, false
}

func decodeList[T any](d *decoder, n *yaml.Node, fn func(*yaml.Node) T) []T {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil
	}
	if !d.expect(n, yaml.SequenceNode, "list") {
		return nil
	}
	out := make([]T, 0, len(n.Content))
	for _, item := range n.Content {
		out = append(out, fn(item))
	}
	return out
}

func (d *decoder) str(n *yaml.Node) string {
	if n.Kind != yaml.ScalarNode {
		d.errorf(n, diag.InpMalformed, "expected a scalar")
		return ""
	}
	return n.Value
}

func (d *decoder) boolean(n *yaml.Node) bool {
	var b bool
	if err := n.Decode(&b); err != nil {
		d.errorf(n, diag.InpMalformed, "expected true or false")
	}
	return b
}

func (d *decoder) access(n *yaml.Node) symbols.AccessLevel {
	switch d.str(n) {
	case "", "public":
		return symbols.AccessPublic
	case "protected":
		return symbols.AccessProtected
	case "private":
		return symbols.AccessPrivate
	default:
		d.unknown(n, "access level", n.Value)
		return symbols.AccessPublic
	}
}

func (d *decoder) namespace(n *yaml.Node) *Namespace {
	ns := &Namespace{Span: d.span(n)}
	if !d.expect(n, yaml.MappingNode, "namespace") {
		return ns
	}
	d.eachKey(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			ns.Name = d.str(v)
		case "sealed":
			ns.Sealed = d.boolean(v)
		case "access":
			ns.Access = d.access(v)
		case "globals":
			ns.Globals = decodeList(d, v, d.global)
		case "funcs":
			ns.Funcs = decodeList(d, v, d.fn)
		case "namespaces":
			ns.Namespaces = decodeList(d, v, d.namespace)
		default:
			d.unknown(v, "namespace key", key)
		}
	})
	if ns.Name == "" {
		d.errorf(n, diag.InpMissingNode, "namespace needs a name")
	}
	return ns
}

func (d *decoder) global(n *yaml.Node) *Global {
	g := &Global{Span: d.span(n)}
	if !d.expect(n, yaml.MappingNode, "global") {
		return g
	}
	d.eachKey(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			g.Name = d.str(v)
		case "type":
			g.Type = symbols.TypeKey(d.str(v))
		case "player":
			g.Player = d.boolean(v)
		case "access":
			g.Access = d.access(v)
		case "init":
			g.Init = d.expr(v)
		default:
			d.unknown(v, "global key", key)
		}
	})
	if g.Name == "" {
		d.errorf(n, diag.InpMissingNode, "global needs a name")
	}
	return g
}

func (d *decoder) param(n *yaml.Node) *Param {
	p := &Param{Span: d.span(n)}
	if n.Kind == yaml.ScalarNode {
		// "n" or "n: number" shorthand
		name, typ, _ := strings.Cut(n.Value, ":")
		p.Name = strings.TrimSpace(name)
		p.Type = symbols.TypeKey(strings.TrimSpace(typ))
		return p
	}
	if !d.expect(n, yaml.MappingNode, "parameter") {
		return p
	}
	d.eachKey(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			p.Name = d.str(v)
		case "type":
			p.Type = symbols.TypeKey(d.str(v))
		default:
			d.unknown(v, "parameter key", key)
		}
	})
	return p
}

func (d *decoder) fn(n *yaml.Node) *Func {
	f := &Func{Span: d.span(n)}
	if !d.expect(n, yaml.MappingNode, "function") {
		return f
	}
	d.eachKey(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			f.Name = d.str(v)
		case "params":
			f.Params = decodeList(d, v, d.param)
		case "result":
			f.Result = symbols.TypeKey(d.str(v))
		case "access":
			f.Access = d.access(v)
		case "subroutine":
			f.Subroutine = d.boolean(v)
		case "subroutine_name":
			f.SubroutineName = d.str(v)
		case "player_locals":
			f.PlayerLocals = d.boolean(v)
		case "virtual":
			f.Virtual = d.boolean(v)
		case "override":
			f.Override = d.boolean(v)
		case "body":
			f.Body = d.block(v)
		default:
			d.unknown(v, "function key", key)
		}
	})
	if f.Name == "" {
		d.errorf(n, diag.InpMissingNode, "function needs a name")
	}
	if f.Body == nil {
		f.Body = &Block{Span: f.Span}
	}
	return f
}

func (d *decoder) rule(n *yaml.Node) *Rule {
	r := &Rule{Span: d.span(n)}
	if !d.expect(n, yaml.MappingNode, "rule") {
		return r
	}
	d.eachKey(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			r.Name = d.str(v)
		case "event":
			switch d.str(v) {
			case "", "global":
				r.Event = EventGlobal
			case "each_player":
				r.Event = EventEachPlayer
			default:
				d.unknown(v, "rule event", v.Value)
			}
		case "conditions":
			r.Conditions = decodeList(d, v, d.expr)
		case "body":
			r.Body = d.block(v)
		default:
			d.unknown(v, "rule key", key)
		}
	})
	if r.Body == nil {
		r.Body = &Block{Span: r.Span}
	}
	return r
}

func (d *decoder) block(n *yaml.Node) *Block {
	return &Block{Span: d.span(n), Stmts: decodeList(d, n, d.stmt)}
}

// optBlock decodes a block that may be absent.
func (d *decoder) optBlock(n *yaml.Node) *Block {
	if n == nil {
		return nil
	}
	return d.block(n)
}

func (d *decoder) fields(n *yaml.Node, what string) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node)
	if n == nil {
		d.errorf(&yaml.Node{}, diag.InpMissingNode, "%s needs a body", what)
		return out
	}
	if !d.expect(n, yaml.MappingNode, what) {
		return out
	}
	d.eachKey(n, func(key string, v *yaml.Node) { out[key] = v })
	return out
}

func (d *decoder) requireExpr(f map[string]*yaml.Node, key string, owner *yaml.Node, what string) *Expr {
	v, ok := f[key]
	if !ok {
		d.errorf(owner, diag.InpMissingNode, "%s needs %q", what, key)
		return &Expr{Kind: ExprNull, Span: d.span(owner)}
	}
	return d.expr(v)
}

func (d *decoder) optExpr(f map[string]*yaml.Node, key string) *Expr {
	if v, ok := f[key]; ok {
		return d.expr(v)
	}
	return nil
}

func (d *decoder) varData(n *yaml.Node) *VarData {
	f := d.fields(n, "var")
	vd := &VarData{}
	if v, ok := f["name"]; ok {
		vd.Name = d.str(v)
	} else {
		d.errorf(n, diag.InpMissingNode, "var needs a name")
	}
	if v, ok := f["type"]; ok {
		vd.Type = symbols.TypeKey(d.str(v))
	}
	vd.Init = d.optExpr(f, "init")
	return vd
}

func (d *decoder) stmt(n *yaml.Node) *Stmt {
	s := &Stmt{Span: d.span(n)}
	kind, v, ok := d.single(n, "statement")
	if !ok {
		s.Kind = StmtBlock
		s.Data = &BlockData{Block: &Block{Span: s.Span}}
		return s
	}
	switch kind {
	case "var":
		s.Kind, s.Data = StmtVar, d.varData(v)
	case "assign":
		f := d.fields(v, "assign")
		op := "="
		if o, ok := f["op"]; ok {
			op = d.str(o)
		}
		s.Kind = StmtAssign
		s.Data = &AssignData{
			Target: d.requireExpr(f, "target", v, "assign"),
			Op:     op,
			Value:  d.requireExpr(f, "value", v, "assign"),
		}
	case "expr":
		s.Kind, s.Data = StmtExpr, &ExprStmtData{X: d.expr(v)}
	case "if":
		f := d.fields(v, "if")
		data := &IfData{
			Cond: d.requireExpr(f, "cond", v, "if"),
			Then: d.optBlock(f["then"]),
			Else: d.optBlock(f["else"]),
		}
		if data.Then == nil {
			data.Then = &Block{Span: s.Span}
		}
		if eis, ok := f["elseifs"]; ok {
			data.ElseIfs = decodeList(d, eis, func(n *yaml.Node) ElseIf {
				ef := d.fields(n, "elseif")
				body := d.optBlock(ef["then"])
				if body == nil {
					body = &Block{Span: d.span(n)}
				}
				return ElseIf{Span: d.span(n), Cond: d.requireExpr(ef, "cond", n, "elseif"), Body: body}
			})
		}
		s.Kind, s.Data = StmtIf, data
	case "while":
		f := d.fields(v, "while")
		s.Kind = StmtWhile
		s.Data = &WhileData{Cond: d.requireExpr(f, "cond", v, "while"), Body: d.loopBody(f, v)}
	case "for":
		f := d.fields(v, "for")
		data := &ForData{Cond: d.optExpr(f, "cond"), Body: d.loopBody(f, v)}
		if init, ok := f["init"]; ok {
			data.Init = d.stmt(init)
		}
		if iter, ok := f["iter"]; ok {
			data.Iter = d.stmt(iter)
		}
		s.Kind, s.Data = StmtFor, data
	case "autofor":
		f := d.fields(v, "autofor")
		data := &AutoForData{
			Stop: d.requireExpr(f, "stop", v, "autofor"),
			Body: d.loopBody(f, v),
		}
		if step, ok := f["step"]; ok {
			data.Step = d.expr(step)
		} else {
			data.Step = &Expr{Kind: ExprNum, Span: d.span(v), Type: symbols.TypeNumber, Data: &NumData{Value: 1}}
		}
		if decl, ok := f["decl"]; ok {
			data.Decl = d.varData(decl)
			if data.Decl.Type == "" {
				data.Decl.Type = symbols.TypeNumber
			}
		}
		if target, ok := f["var"]; ok {
			data.Target = d.expr(target)
			data.Start = d.optExpr(f, "start")
		}
		s.Kind, s.Data = StmtAutoFor, data
	case "foreach":
		f := d.fields(v, "foreach")
		data := &ForeachData{In: d.requireExpr(f, "in", v, "foreach"), Body: d.loopBody(f, v)}
		if name, ok := f["var"]; ok {
			data.Var = d.str(name)
		} else {
			d.errorf(v, diag.InpMissingNode, "foreach needs \"var\"")
		}
		if typ, ok := f["type"]; ok {
			data.Type = symbols.TypeKey(d.str(typ))
		}
		s.Kind, s.Data = StmtForeach, data
	case "break":
		s.Kind = StmtBreak
	case "continue":
		s.Kind = StmtContinue
	case "return":
		data := &ReturnData{}
		if v != nil && !(v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null") {
			data.Value = d.expr(v)
		}
		s.Kind, s.Data = StmtReturn, data
	case "block":
		s.Kind, s.Data = StmtBlock, &BlockData{Block: d.block(v)}
	default:
		d.unknown(n, "statement", kind)
		s.Kind, s.Data = StmtBlock, &BlockData{Block: &Block{Span: s.Span}}
	}
	return s
}

func (d *decoder) loopBody(f map[string]*yaml.Node, owner *yaml.Node) *Block {
	if b := d.optBlock(f["body"]); b != nil {
		return b
	}
	return &Block{Span: d.span(owner)}
}

func (d *decoder) expr(n *yaml.Node) *Expr {
	sp := d.span(n)
	if n.Kind == yaml.ScalarNode {
		e := d.scalar(n)
		if t, ok := typeAnnotation(n); ok {
			e.Type = t
		}
		return e
	}
	if n.Kind == yaml.SequenceNode {
		// a bare list is an array literal
		return &Expr{Kind: ExprArray, Span: sp, Type: symbols.TypeArray, Data: &ArrayData{Elems: decodeList(d, n, d.expr)}}
	}
	kind, v, ok := d.single(n, "expression")
	if !ok {
		return &Expr{Kind: ExprNull, Span: sp}
	}
	e := &Expr{Span: sp}
	switch kind {
	case "num", "bool", "null":
		inner := d.scalar(v)
		inner.Span = sp
		return inner
	case "ref":
		e.Kind, e.Data = ExprRef, &RefData{Path: strings.Split(d.str(v), ".")}
	case "this":
		e.Kind, e.Type = ExprThis, symbols.TypePlayer
	case "bin":
		e.Kind, e.Data = ExprBinary, d.binary(v)
	case "un":
		if v.Kind == yaml.SequenceNode && len(v.Content) == 2 {
			e.Kind, e.Data = ExprUnary, &UnaryData{Op: d.str(v.Content[0]), X: d.expr(v.Content[1])}
			break
		}
		f := d.fields(v, "un")
		op := "!"
		if o, ok := f["op"]; ok {
			op = d.str(o)
		}
		e.Kind, e.Data = ExprUnary, &UnaryData{Op: op, X: d.requireExpr(f, "x", v, "un")}
	case "call":
		f := d.fields(v, "call")
		data := &CallData{}
		if fn, ok := f["fn"]; ok {
			data.Path = strings.Split(d.str(fn), ".")
		} else {
			d.errorf(v, diag.InpMissingNode, "call needs \"fn\"")
		}
		if args, ok := f["args"]; ok {
			data.Args = decodeList(d, args, d.expr)
		}
		e.Kind, e.Data = ExprCall, data
	case "invoke":
		f := d.fields(v, "invoke")
		data := &InvokeData{Callee: d.requireExpr(f, "callee", v, "invoke")}
		if args, ok := f["args"]; ok {
			data.Args = decodeList(d, args, d.expr)
		}
		e.Kind, e.Data = ExprInvoke, data
	case "index":
		f := d.fields(v, "index")
		e.Kind, e.Data = ExprIndex, &IndexData{
			Array: d.requireExpr(f, "array", v, "index"),
			At:    d.requireExpr(f, "at", v, "index"),
		}
	case "array":
		e.Kind, e.Type = ExprArray, symbols.TypeArray
		e.Data = &ArrayData{Elems: decodeList(d, v, d.expr)}
	case "lambda":
		f := d.fields(v, "lambda")
		data := &LambdaData{}
		if params, ok := f["params"]; ok {
			data.Params = decodeList(d, params, d.param)
		}
		if body, ok := f["body"]; ok {
			data.Body = d.block(body)
		} else {
			data.Expr = d.requireExpr(f, "expr", v, "lambda")
		}
		e.Kind, e.Type, e.Data = ExprLambda, symbols.TypeLambda, data
	default:
		d.unknown(n, "expression", kind)
		e.Kind = ExprNull
		return e
	}
	if t, ok := typeAnnotation(n); ok {
		e.Type = t
	}
	return e
}

// typeAnnotation reads a checker type written as a local tag, as in
// !number {call: {fn: f}} or !lambda cb.
func typeAnnotation(n *yaml.Node) (symbols.TypeKey, bool) {
	if n.Tag == "" || strings.HasPrefix(n.Tag, "!!") {
		return "", false
	}
	return symbols.TypeKey(strings.TrimPrefix(n.Tag, "!")), true
}

func (d *decoder) binary(v *yaml.Node) *BinaryData {
	if v.Kind == yaml.SequenceNode {
		if len(v.Content) != 3 {
			d.errorf(v, diag.InpMalformed, "bin list must be [left, op, right]")
			return &BinaryData{Op: "+", L: &Expr{Kind: ExprNull}, R: &Expr{Kind: ExprNull}}
		}
		return &BinaryData{L: d.expr(v.Content[0]), Op: d.str(v.Content[1]), R: d.expr(v.Content[2])}
	}
	f := d.fields(v, "bin")
	op := ""
	if o, ok := f["op"]; ok {
		op = d.str(o)
	} else {
		d.errorf(v, diag.InpMissingNode, "bin needs \"op\"")
	}
	return &BinaryData{Op: op, L: d.requireExpr(f, "l", v, "bin"), R: d.requireExpr(f, "r", v, "bin")}
}

func (d *decoder) scalar(n *yaml.Node) *Expr {
	if n == nil {
		return &Expr{Kind: ExprNull}
	}
	sp := d.span(n)
	switch n.ShortTag() {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			d.errorf(n, diag.InpMalformed, "bad number %q", n.Value)
		}
		return &Expr{Kind: ExprNum, Span: sp, Type: symbols.TypeNumber, Data: &NumData{Value: f}}
	case "!!bool":
		return &Expr{Kind: ExprBool, Span: sp, Type: symbols.TypeBool, Data: &BoolData{Value: d.boolean(n)}}
	case "!!null":
		return &Expr{Kind: ExprNull, Span: sp}
	}
	if n.Value == "this" {
		return &Expr{Kind: ExprThis, Span: sp, Type: symbols.TypePlayer}
	}
	return &Expr{Kind: ExprRef, Span: sp, Data: &RefData{Path: strings.Split(n.Value, ".")}}
}
