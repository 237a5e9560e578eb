package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wsc/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new wsc project",
	Long: `Initialize a new wsc project by creating a manifest (wsc.toml) and a sample
fixture (main.wsc.yaml). Without an argument the current directory is used; a
non-existing name is created as a directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) > 0 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "wsc-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(project.DefaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	mainPath := filepath.Join(target, "main.wsc.yaml")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(mainPath, []byte(defaultMainFixture), 0o600); err != nil {
			return fmt.Errorf("failed to write main.wsc.yaml: %w", err)
		}
		createdMain = true
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized wsc project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdMain {
		fmt.Fprintln(out, "  - main.wsc.yaml")
	} else {
		fmt.Fprintln(out, "  - main.wsc.yaml (existing)")
	}
	return nil
}

// defaultMainFixture counts down recursively and logs each step.
const defaultMainFixture = `globals:
  - {name: total, type: number, init: 0}
funcs:
  - name: countdown
    params: ["n: number"]
    result: number
    body:
      - if:
          cond: {bin: [n, "<=", 0]}
          then:
            - return: 0
      - expr: {call: {fn: Log, args: [n]}}
      - return: {bin: [n, "+", {call: {fn: countdown, args: [{bin: [n, "-", 1]}]}}]}
rules:
  - name: main
    body:
      - assign: {target: total, value: {call: {fn: countdown, args: [3]}}}
`
