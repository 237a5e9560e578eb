package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wsc/internal/prof"
	"wsc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "wsc",
	Short:         "Workshop script compiler",
	Long:          `wsc lowers checked workshop programs into flat action lists with emulated recursion and closures`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorFlag(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		session, err := prof.Start(profileConfig(cmd))
		if err != nil {
			return err
		}
		profSession = session
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := profSession.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profiling: %v\n", err)
		}
		if traceCleanup != nil {
			traceCleanup()
		}
	},
}

var (
	traceCleanup func()
	profSession  *prof.Session
)

// main registers the subcommands and persistent flags and runs the root
// command, exiting with status 1 on error.
func main() {
	rootCmd.Version = version.Plain()

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 uses wsc.toml or 100)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer size for --trace-mode ring|both")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// applyColorFlag resolves --color once for the whole process.
func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	on, err := colorEnabled(mode, isTerminal(os.Stdout))
	if err != nil {
		return err
	}
	color.NoColor = !on
	return nil
}

func colorEnabled(mode string, tty bool) (bool, error) {
	m, err := readUIMode(mode, "--color")
	if err != nil {
		return false, err
	}
	switch m {
	case uiModeOn:
		return true, nil
	case uiModeOff:
		return false, nil
	default:
		return tty, nil
	}
}

// profileConfig reads the profiling flags; unset flags leave a profiler off.
func profileConfig(cmd *cobra.Command) prof.Config {
	flags := cmd.Root().PersistentFlags()
	cpu, _ := flags.GetString("cpu-profile")
	heap, _ := flags.GetString("mem-profile")
	rt, _ := flags.GetString("runtime-trace")
	return prof.Config{CPU: cpu, Heap: heap, Trace: rt}
}
