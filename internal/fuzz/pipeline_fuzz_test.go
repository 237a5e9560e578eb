package fuzztests

import (
	"context"
	"errors"
	"testing"
	"time"

	"wsc/internal/diag"
	"wsc/internal/hir"
	"wsc/internal/lower"
	"wsc/internal/sema"
	"wsc/internal/source"
	"wsc/internal/testkit"
	"wsc/internal/vm"
)

// pipelineTimeout bounds one input; anything slower is treated as a hang.
const pipelineTimeout = 5 * time.Second

func FuzzDecode(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.Add("fuzz.wsc.yaml", clampInput(input)))
		bag := diag.NewBag(128)
		_, _ = hir.Decode(file, diag.BagReporter{Bag: bag})
	})
}

// FuzzPipeline lowers every input that checks cleanly and runs the result
// under a small step budget.
func FuzzPipeline(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- runPipeline(ctx, input) }()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("%v\ninput (%d bytes): %q", err, len(input), truncateForLog(input, 200))
			}
		case <-ctx.Done():
			t.Fatalf("pipeline hang: took longer than %v\ninput (%d bytes): %q",
				pipelineTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func runPipeline(ctx context.Context, input []byte) error {
	fs := source.NewFileSet()
	file := fs.Get(fs.Add("fuzz.wsc.yaml", input))
	bag := diag.NewBag(128)
	reporter := diag.BagReporter{Bag: bag}

	mod, err := hir.Decode(file, reporter)
	if err != nil || bag.HasErrors() {
		return nil
	}
	checked, err := sema.Check(mod, sema.Options{Reporter: reporter})
	if err != nil || bag.HasErrors() {
		return nil
	}
	opts := lower.DefaultOptions()
	opts.Reporter = reporter
	prog, err := lower.Lower(ctx, checked, opts)
	if err != nil || bag.HasErrors() || prog == nil {
		return nil
	}
	if err := testkit.CheckProgramInvariants(prog); err != nil {
		return err
	}
	m := vm.New(prog, vm.Options{Players: 2, MaxSteps: 10_000, MaxDepth: 64})
	var vmErr *vm.VMError
	if err := m.Run(ctx); err != nil && !errors.As(err, &vmErr) && ctx.Err() == nil {
		return err
	}
	return nil
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], "..."...)
}
