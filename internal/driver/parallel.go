package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"wsc/internal/source"
	"wsc/internal/trace"
)

// FixtureExt is the extension of program fixtures.
const FixtureExt = ".wsc.yaml"

// ListFixtures returns the sorted fixtures under dir, or path itself when
// it names a file.
func ListFixtures(path string) ([]string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, FixtureExt) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CompileAll compiles every fixture under path. Files are loaded up front
// into one FileSet and compiled concurrently, at most jobs at a time.
// Results keep the order of ListFixtures.
func CompileAll(ctx context.Context, path string, opts Options, jobs int) ([]*Result, error) {
	files, err := ListFixtures(path)
	if err != nil {
		return nil, err
	}
	ctx, span := trace.StartSpan(ctx, trace.ScopeDriver, "compile all")
	defer span.End("")

	fileSet := source.NewFileSet()
	ids := make([]source.FileID, len(files))
	idx := opts.Timer.Begin("load_files")
	for i, p := range files {
		if ids[i], err = fileSet.Load(p); err != nil {
			opts.Timer.End(idx, "")
			return nil, err
		}
	}
	opts.Timer.End(idx, "")
	if len(files) == 0 {
		return nil, nil
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := CompileFile(gctx, fileSet, ids[i], opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
