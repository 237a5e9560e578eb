package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wsc/internal/diagfmt"
	"wsc/internal/driver"
	"wsc/internal/vm"
	"wsc/internal/workshop"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [fixture]",
	Short: "Compile a fixture and execute it on the reference VM",
	Long: `Compile one fixture and run every rule once on the reference VM: global rules
first, then each player's rules. Logged values and final global variables are printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	addTargetFlags(runCmd)
	runCmd.Flags().Int("players", 1, "number of players")
	runCmd.Flags().Int("max-steps", 0, "action budget (0 = VM default)")
	runCmd.Flags().Bool("vars", true, "print global variables after the run")
}

func runRun(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	players, _ := cmd.Flags().GetInt("players")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	showVars, _ := cmd.Flags().GetBool("vars")

	res, err := driver.Compile(cmd.Context(), t.path, driver.Options{Lower: t.opts, MaxDiagnostics: t.maxDiags})
	if err != nil {
		return err
	}
	if err := diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, prettyOpts(true)); err != nil {
		return err
	}
	if res.Failed() {
		return errCompileFailed
	}

	m := vm.New(res.Program, vm.Options{Players: players, MaxSteps: maxSteps})
	runErr := m.Run(cmd.Context())
	out := cmd.OutOrStdout()
	for _, v := range m.Log {
		fmt.Fprintln(out, v.String())
	}
	if showVars {
		printGlobals(out, m, res.Program)
	}
	var vmErr *vm.VMError
	if errors.As(runErr, &vmErr) {
		fmt.Fprint(cmd.ErrOrStderr(), vmErr.Format())
		return fmt.Errorf("run failed: %s", vmErr.Code)
	}
	return runErr
}

// printGlobals lists every global variable in allocation order, compiler
// slots included.
func printGlobals(w io.Writer, m *vm.VM, p *workshop.Program) {
	for _, v := range p.Vars {
		if v.Space != workshop.SpaceGlobal {
			continue
		}
		val, ok := m.Global(v.Name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s = %s\n", v.Name, val.String())
	}
}
