package main

import (
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"runtrace/internal/hook"
	"runtrace/internal/hostgo"
	"runtrace/internal/tracefile"
	"runtrace/internal/writer"
)

var (
	demoOut    string
	demoFormat string
)

func init() {
	demoCmd.Flags().StringVar(&demoOut, "out", "", "trace directory (default: out_dir from config)")
	demoCmd.Flags().StringVar(&demoFormat, "format", "", "events format (json|binary|binaryv0; default from config)")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Record a small built-in Go workload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := demoOut
		if out == "" {
			out = settings.OutDir
		}
		formatName := demoFormat
		if formatName == "" {
			formatName = settings.Format
		}
		format, err := tracefile.ParseFormat(formatName)
		if err != nil {
			return err
		}

		w := writer.New(writer.Options{
			Program:     "runtrace demo",
			Args:        args,
			MaxDepth:    settings.MaxDepth,
			MaxElements: settings.MaxElements,
			Ignore:      settings.Ignore,
			Tracer:      diagTracer,
		})
		if err := w.Begin(out, format); err != nil {
			return err
		}
		if err := runDemo(hook.New(w)); err != nil {
			return err
		}
		if err := w.Finish(); err != nil {
			return err
		}

		if !isQuiet(cmd) {
			st := w.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %d steps, %d events)\n",
				okColor.Sprint("saved trace to"), out, format, st.Steps, st.Events)
		}
		return nil
	},
}

// Shape is a record-like value used by the demo workload.
type Shape struct {
	Name  string
	Sides int
	Tags  map[string]int
}

// here returns the caller's source position.
func here() (string, int64) {
	_, file, line, _ := runtime.Caller(1)
	return file, int64(line)
}

// runDemo drives the recorder through calls, returns, locals of several
// shapes, output, an error and a second goroutine.
func runDemo(r *hook.Recorder) error {
	if err := r.Start(); err != nil {
		return err
	}
	file, line := here()
	if err := r.OnLine(file, line, []hook.Local{{Name: "n", Value: 6}}); err != nil {
		return err
	}

	var fib func(n int) int
	fib = func(n int) int {
		file, line := here()
		res, _ := r.Invoke(file, line, "fib", nil, []hook.Local{{Name: "n", Value: n}}, func() any { //nolint:errcheck
			if n < 2 {
				return n
			}
			return fib(n-1) + fib(n-2)
		})
		return res.(int)
	}
	result := fib(6)

	shapes := []Shape{
		{Name: "triangle", Sides: 3, Tags: map[string]int{"acute": 1}},
		{Name: "square", Sides: 4},
	}
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^(\w+)-(\d+)$`)
	file, line = here()
	err := r.OnLine(file, line, []hook.Local{
		{Name: "result", Value: result},
		{Name: "shapes", Value: shapes},
		{Name: "started", Value: started},
		{Name: "pattern", Value: pattern},
		{Name: "kind", Value: hostgo.Symbol("polygon")},
	})
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("fib(6) = %d\n", result)
	file, line = here()
	if err := r.RecordWrite(file, line, msg); err != nil {
		return err
	}

	if _, convErr := strconv.Atoi("seven"); convErr != nil {
		file, line = here()
		if err := r.OnRaise(file, line, convErr); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		const worker = 2
		if err := r.OnThreadStart(worker); err != nil {
			errs <- err
			return
		}
		file, line := here()
		if err := r.OnLine(file, line, []hook.Local{{Name: "worker", Value: worker}}); err != nil {
			errs <- err
			return
		}
		if err := r.OnThreadExit(worker); err != nil {
			errs <- err
		}
	}()
	wg.Wait()
	close(errs)
	return <-errs
}
