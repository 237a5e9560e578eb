package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wsc/internal/diag"
	"wsc/internal/diagfmt"
	"wsc/internal/driver"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [fixture|directory]",
	Short: "Check fixtures and print diagnostics",
	Long:  `Run the full pipeline on a fixture or every *.wsc.yaml under a directory and report diagnostics without writing listings`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiagnose,
}

func init() {
	addTargetFlags(diagCmd)
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	diagCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	diagCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// runDiagnose compiles the target and prints its diagnostics in the chosen
// format. It fails when any diagnostic is an error, or a warning under
// --warnings-as-errors.
func runDiagnose(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	noWarnings, _ := cmd.Flags().GetBool("no-warnings")
	strict, _ := cmd.Flags().GetBool("warnings-as-errors")
	jobs, _ := cmd.Flags().GetInt("jobs")
	withNotes, _ := cmd.Flags().GetBool("with-notes")
	suggest, _ := cmd.Flags().GetBool("suggest")
	fullPath, _ := cmd.Flags().GetBool("fullpath")

	results, err := driver.CompileAll(cmd.Context(), t.path, driver.Options{Lower: t.opts, MaxDiagnostics: t.maxDiags}, jobs)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	failed := false
	for _, res := range results {
		bag := filterBag(res.Bag, noWarnings, strict)
		bag.Sort()
		if bag.HasErrors() {
			failed = true
		}
		switch format {
		case "pretty":
			opts := prettyOpts(true)
			opts.PathMode = pathMode
			opts.ShowNotes = withNotes
			opts.ShowFixes = suggest
			err = diagfmt.Pretty(cmd.OutOrStdout(), bag, res.FileSet, opts)
		case "json":
			err = diagfmt.JSON(cmd.OutOrStdout(), bag, res.FileSet, diagfmt.JSONOpts{
				PathMode:     pathMode,
				IncludeNotes: withNotes,
				IncludeFixes: suggest,
			})
		default:
			return fmt.Errorf("unknown format %q (expected pretty|json)", format)
		}
		if err != nil {
			return err
		}
	}
	if failed {
		return errCompileFailed
	}
	return nil
}

// filterBag drops warnings and infos, or promotes warnings to errors.
func filterBag(in *diag.Bag, noWarnings, strict bool) *diag.Bag {
	out := diag.NewBag(0)
	for _, d := range in.Items() {
		switch {
		case d.Severity == diag.SevWarning && strict:
			d.Severity = diag.SevError
		case d.Severity < diag.SevError && noWarnings:
			continue
		}
		out.Add(d)
	}
	return out
}
