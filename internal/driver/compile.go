package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/lower"
	"wsc/internal/observ"
	"wsc/internal/sema"
	"wsc/internal/source"
	"wsc/internal/trace"
	"wsc/internal/workshop"
)

// Options configure one compilation.
type Options struct {
	Lower          lower.Options
	MaxDiagnostics int
	// Timer collects phase durations; nil disables timing.
	Timer *observ.Timer
	// Cache short-circuits compilation of unchanged fixtures; nil disables it.
	Cache *DiskCache
	// Progress receives per-stage events; nil disables them.
	Progress ProgressSink
}

// Result is the outcome of compiling one fixture. Program is nil whenever
// Bag holds errors.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    source.FileID
	Bag     *diag.Bag
	Program *workshop.Program
	Cached  bool
}

// Failed reports whether the fixture produced no program.
func (r *Result) Failed() bool { return r.Program == nil }

// Compile loads path and compiles it.
func Compile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	idx := opts.Timer.Begin("load_file")
	id, err := fs.Load(path)
	opts.Timer.End(idx, path)
	if err != nil {
		return nil, err
	}
	return CompileFile(ctx, fs, id, opts)
}

// CompileFile compiles a file already present in fs. The returned error is
// reserved for failures that are not the fixture's fault.
func CompileFile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	f := fs.Get(id)
	if f == nil {
		return nil, fmt.Errorf("unknown file id %d", id)
	}
	ctx, span := trace.StartSpan(ctx, trace.ScopeUnit, "compile "+f.Path)
	res := &Result{Path: f.Path, FileSet: fs, File: id, Bag: diag.NewBag(opts.MaxDiagnostics)}
	prog := progress{sink: opts.Progress, file: f.Path, start: time.Now()}
	var err error
	defer func() {
		switch {
		case err != nil || res.Failed():
			prog.emit(StageLower, StatusError, err)
		default:
			prog.emit(StageLower, StatusDone, nil)
		}
		span.End(outcome(res))
	}()

	key := cacheKey(f.Hash, opts.Lower)
	if opts.Cache != nil {
		prog.emit(StageCache, StatusWorking, nil)
		var payload DiskPayload
		ok, cerr := opts.Cache.Get(key, &payload)
		if cerr == nil && ok && payload.Program != nil {
			for _, d := range payload.Diagnostics {
				res.Bag.Add(rebind(d, id))
			}
			res.Program = payload.Program
			res.Cached = true
			return res, nil
		}
	}

	reporter := diag.BagReporter{Bag: res.Bag}

	_, decodeSpan := trace.StartSpan(ctx, trace.ScopePass, "decode")
	prog.emit(StageDecode, StatusWorking, nil)
	idx := opts.Timer.Begin("decode")
	mod, err := hir.Decode(f, reporter)
	opts.Timer.End(idx, f.Path)
	decodeSpan.End("")
	if err != nil {
		diag.ReportError(reporter, diag.InpMalformed, source.Span{File: id}, err.Error()).Emit()
		err = nil
		return res, nil
	}

	_, semaSpan := trace.StartSpan(ctx, trace.ScopePass, "sema")
	prog.emit(StageSema, StatusWorking, nil)
	idx = opts.Timer.Begin("sema")
	checked, err := sema.Check(mod, sema.Options{Reporter: reporter})
	opts.Timer.End(idx, f.Path)
	semaSpan.End("")
	if err != nil {
		err = fmt.Errorf("%s: %w", f.Path, err)
		return res, err
	}
	if res.Bag.HasErrors() {
		return res, nil
	}

	lopts := opts.Lower
	lopts.Reporter = reporter
	lctx, lowerSpan := trace.StartSpan(ctx, trace.ScopePass, "lower")
	prog.emit(StageLower, StatusWorking, nil)
	idx = opts.Timer.Begin("lower")
	out, err := lower.Lower(lctx, checked, lopts)
	opts.Timer.End(idx, f.Path)
	lowerSpan.End("")
	if err != nil {
		err = fmt.Errorf("%s: %w", f.Path, err)
		return res, err
	}
	if res.Bag.HasErrors() {
		return res, nil
	}
	out.BuildID = uuid.NewString()
	res.Program = out

	// Warnings travel with the program. Results cut short by the
	// diagnostics limit are not cached since the stored list would be partial.
	if opts.Cache != nil && !res.Bag.HasErrors() && (res.Bag.Cap() <= 0 || res.Bag.Len() < res.Bag.Cap()) {
		payload := &DiskPayload{Schema: diskCacheSchemaVersion, Path: f.Path, Program: out, Diagnostics: res.Bag.Items()}
		if perr := opts.Cache.Put(key, payload); perr != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeUnit, "cache", perr.Error(), span.ID())
		}
	}
	return res, nil
}

func outcome(r *Result) string {
	switch {
	case r.Cached:
		return "cached"
	case r.Program == nil:
		return "failed"
	default:
		return "ok"
	}
}
