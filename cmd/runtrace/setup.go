package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"runtrace/internal/config"
	"runtrace/internal/diag"
	"runtrace/internal/prof"
)

var (
	settings    = config.Default()
	diagTracer  = diag.Nop
	diagCleanup = func() {}
	profSession *prof.Session
)

// prepareRun applies the color mode, loads settings and starts diagnostics.
func prepareRun(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	colorMode, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorMode); err != nil {
		return err
	}

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if cfgPath == "" {
		found, ok, findErr := config.Find(".")
		if findErr != nil {
			return findErr
		}
		if ok {
			cfgPath = found
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if out, _ := flags.GetString("diag"); out != "" {
		cfg.Diag.Output = out
		if cfg.Diag.Level == diag.LevelOff.String() {
			cfg.Diag.Level = diag.LevelInfo.String()
		}
	}
	if level, _ := flags.GetString("diag-level"); level != "" {
		cfg.Diag.Level = level
	}
	settings = cfg
	if err := setupDiag(cmd); err != nil {
		return err
	}
	return startProfiles(flags)
}

// startProfiles begins the profiles requested with --cpu-profile,
// --mem-profile and --exec-trace.
func startProfiles(flags *pflag.FlagSet) error {
	var opts prof.Options
	opts.CPU, _ = flags.GetString("cpu-profile")
	opts.Mem, _ = flags.GetString("mem-profile")
	opts.ExecTrace, _ = flags.GetString("exec-trace")
	if !opts.Enabled() {
		return nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	profSession = s
	return nil
}

// setupDiag creates the diagnostics tracer and attaches it to the command
// context.
func setupDiag(cmd *cobra.Command) error {
	dc, err := settings.DiagConfig()
	if err != nil {
		return fmt.Errorf("invalid diag settings: %w", err)
	}
	tracer, err := diag.New(dc)
	if err != nil {
		return fmt.Errorf("failed to create diag tracer: %w", err)
	}
	diagTracer = tracer

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = diag.WithTracer(ctx, tracer)
	cmd.SetContext(ctx)

	diagCleanup = func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "diag: close error: %v\n", err)
		}
	}
	return nil
}

// closeDiag stops profiling and flushes diagnostics. After a failed run the
// events held by a ring-mode tracer are written out first.
func closeDiag(failed bool) {
	if failed {
		if err := diag.Dump(diagTracer); err != nil {
			fmt.Fprintf(os.Stderr, "diag: %v\n", err)
		}
	}
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
	}
	profSession = nil
	diagCleanup()
	diagCleanup = func() {}
	diagTracer = diag.Nop
}

func applyColorMode(mode string) error {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}
