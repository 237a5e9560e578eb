package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wsc/internal/driver"
	"wsc/internal/lower"
	"wsc/internal/project"
)

const noManifestMessage = "no " + project.ManifestName + " found\nplease name the fixture explicitly, e.g.:\n  wsc compile path/to/main" + driver.FixtureExt

// target is what a command compiles: the path from the arguments or the
// manifest, with the manifest's settings and the flag overrides applied.
type target struct {
	path     string
	out      string
	manifest *project.Manifest
	opts     lower.Options
	maxDiags int
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().Int("global-slots", 0, "native global variable slots before overflow (0 = manifest or default)")
	cmd.Flags().Int("player-slots", 0, "native player variable slots before overflow (0 = manifest or default)")
	cmd.Flags().Bool("no-native-break", false, "lower break with skips only")
	cmd.Flags().Bool("no-native-continue", false, "lower continue with skips only")
}

func resolveTarget(cmd *cobra.Command, args []string) (*target, error) {
	t := &target{opts: lower.DefaultOptions(), maxDiags: 100}
	if len(args) > 0 {
		t.path = args[0]
	} else {
		m, ok, err := project.Load(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(noManifestMessage)
		}
		t.manifest = m
		t.path = m.MainPath()
		t.out = m.OutPath()
		t.opts = m.Config.LowerOptions()
		t.maxDiags = m.Config.Diagnostics.Max
	}

	flags := cmd.Flags()
	if n, err := flags.GetInt("global-slots"); err == nil && n > 0 {
		t.opts.Slots.GlobalSlots = n
	}
	if n, err := flags.GetInt("player-slots"); err == nil && n > 0 {
		t.opts.Slots.PlayerSlots = n
	}
	if off, err := flags.GetBool("no-native-break"); err == nil && off {
		t.opts.NativeBreak = false
	}
	if off, err := flags.GetBool("no-native-continue"); err == nil && off {
		t.opts.NativeContinue = false
	}
	limit, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if limit > 0 {
		t.maxDiags = limit
	}
	return t, nil
}
