package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"wsc/internal/diagfmt"
	"wsc/internal/driver"
	"wsc/internal/observ"
	"wsc/internal/ui"
	"wsc/internal/workshop"
)

// ListingExt is the extension of written action listings.
const ListingExt = ".ows"

var errCompileFailed = errors.New("compilation failed")

var compileCmd = &cobra.Command{
	Use:   "compile [flags] [fixture|directory]",
	Short: "Compile fixtures into action listings",
	Long: `Compile a program fixture (or every *.wsc.yaml under a directory) and write
the action listing. Without an argument the [compile] section of wsc.toml is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	addTargetFlags(compileCmd)
	compileCmd.Flags().StringP("output", "o", "", "listing file, or directory when compiling a directory (default stdout)")
	compileCmd.Flags().Int("jobs", 0, "max parallel workers for directories (0=auto)")
	compileCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	compileCmd.Flags().Bool("disk-cache", false, "reuse compiled programs from the user cache")
}

func runCompile(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = t.out
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiFlag, "--ui")
	if err != nil {
		return err
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	opts := driver.Options{Lower: t.opts, MaxDiagnostics: t.maxDiags}
	if showTimings {
		opts.Timer = observ.NewTimer()
	}
	if useCache, _ := cmd.Flags().GetBool("disk-cache"); useCache {
		if opts.Cache, err = driver.OpenDiskCache("wsc"); err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	files, err := driver.ListFixtures(t.path)
	if err != nil {
		return err
	}
	var results []*driver.Result
	if len(files) > 1 && shouldUseTUI(mode) && !quiet {
		results, err = compileWithUI(cmd.Context(), t.path, files, opts, jobs)
	} else {
		results, err = driver.CompileAll(cmd.Context(), t.path, opts, jobs)
	}
	if err != nil {
		return err
	}

	failed := false
	for _, res := range results {
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, prettyOpts(true)); err != nil {
			return err
		}
		if res.Failed() {
			failed = true
			continue
		}
		if err := writeListing(cmd.OutOrStdout(), res, out, len(files) > 1); err != nil {
			return err
		}
	}
	if !quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(results))
	}
	if opts.Timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), renderTimings(opts.Timer.Report()))
	}
	if failed {
		return errCompileFailed
	}
	return nil
}

// compileWithUI runs CompileAll while a Bubble Tea model renders progress.
func compileWithUI(ctx context.Context, title string, files []string, opts driver.Options, jobs int) ([]*driver.Result, error) {
	events := make(chan driver.Event, 256)
	type outcome struct {
		results []*driver.Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		o := opts
		o.Progress = driver.ChannelSink{Ch: events}
		results, err := driver.CompileAll(ctx, title, o, jobs)
		done <- outcome{results, err}
		close(events)
	}()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.ToSlash(f)
	}
	program := tea.NewProgram(ui.NewProgressModel("compiling "+title, paths, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	res := <-done
	if uiErr != nil {
		return res.results, uiErr
	}
	return res.results, res.err
}

// writeListing prints the listing to w, or writes it under out. With many
// fixtures out is a directory and each listing is named after its fixture.
func writeListing(w io.Writer, res *driver.Result, out string, many bool) error {
	if out == "" {
		if many {
			fmt.Fprintf(w, "// %s\n", res.Path)
		}
		return workshop.PrintProgram(w, res.Program)
	}
	path := out
	if many {
		name := strings.TrimSuffix(filepath.Base(res.Path), driver.FixtureExt) + ListingExt
		path = filepath.Join(out, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := workshop.PrintProgram(f, res.Program); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
