package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"runtrace/internal/diag"
	"runtrace/internal/tracefile"
)

var (
	convertTo   = tracefile.FormatJSON
	convertJobs int
)

func init() {
	convertCmd.Flags().Var(&convertTo, "to", "target format (json|binary|binaryv0)")
	convertCmd.Flags().IntVarP(&convertJobs, "jobs", "j", 0, "parallel conversions (0 = GOMAXPROCS)")
	_ = convertCmd.MarkFlagRequired("to") //nolint:errcheck
}

var convertCmd = &cobra.Command{
	Use:   "convert --to FORMAT DIR...",
	Short: "Rewrite trace directories in another events format",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		results := convertDirs(ctx, args, convertTo, convertJobs)

		failed := 0
		out := cmd.OutOrStdout()
		for i, dir := range args {
			if err := results[i]; err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", errColor.Sprint("error"), dir, err)
				continue
			}
			if !isQuiet(cmd) {
				fmt.Fprintf(out, "%s %s -> %s\n", okColor.Sprint("converted"), dir, convertTo)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d conversions failed", failed, len(args))
		}
		return nil
	},
}

// convertDirs converts every directory in place and returns one error slot
// per directory. A failure does not stop the other conversions.
func convertDirs(ctx context.Context, dirs []string, to tracefile.Format, jobs int) []error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := diag.FromContext(ctx)
	results := make([]error, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(dirs)))
	for i, dir := range dirs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = gctx.Err()
				return nil
			default:
			}
			span := diag.Begin(tracer, diag.ScopeSession, "convert", 0).WithExtra("dir", dir)
			err := tracefile.Convert(dir, dir, to)
			if err != nil {
				diag.Errorf(tracer, "convert", "%s: %v", dir, err)
				span.End("failed")
			} else {
				span.End("")
			}
			results[i] = err
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck
	return results
}
