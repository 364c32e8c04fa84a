package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"runtrace/internal/tracefile"
	"runtrace/internal/tracelog"
)

var (
	inspectShowTypes     bool
	inspectShowFunctions bool
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectShowTypes, "types", false, "list registered types")
	inspectCmd.Flags().BoolVar(&inspectShowFunctions, "functions", false, "list registered functions")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect DIR",
	Short: "Summarize a trace directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := tracefile.Read(args[0])
		if err != nil {
			return err
		}
		renderSummary(cmd.OutOrStdout(), args[0], tr)
		return nil
	},
}

type traceSummary struct {
	counts map[tracelog.RecordKind]int
	total  int
}

func summarize(tr *tracefile.Trace) traceSummary {
	s := traceSummary{counts: make(map[tracelog.RecordKind]int)}
	for _, r := range tr.Records {
		s.counts[r.Kind]++
		s.total++
	}
	return s
}

// breakdown renders counts as "Call 2, Step 5" in kind order.
func (s traceSummary) breakdown() string {
	kinds := make([]tracelog.RecordKind, 0, len(s.counts))
	for k := range s.counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s %d", k, s.counts[k])
	}
	return strings.Join(parts, ", ")
}

func renderSummary(out io.Writer, dir string, tr *tracefile.Trace) {
	meta := tr.Metadata
	sum := summarize(tr)

	fmt.Fprintln(out, render(titleStyle, "trace "+dir))
	fmt.Fprintf(out, "%s%s\n", label("format"), tr.Format)
	fmt.Fprintf(out, "%s%s %s\n", label("recorder"), meta.Recorder, meta.Version)
	fmt.Fprintf(out, "%s%s\n", label("session"), meta.SessionID)
	program := meta.Program
	if len(meta.Args) > 0 {
		program += " " + strings.Join(meta.Args, " ")
	}
	fmt.Fprintf(out, "%s%s\n", label("program"), program)
	if meta.Workdir != "" {
		fmt.Fprintf(out, "%s%s\n", label("workdir"), meta.Workdir)
	}
	fmt.Fprintf(out, "%s%d %s\n", label("records"), sum.total, render(dimStyle, "("+sum.breakdown()+")"))
	fmt.Fprintf(out, "%s%d\n", label("paths"), len(tr.Paths))
	fmt.Fprintf(out, "%s%d\n", label("functions"), len(meta.Functions))
	fmt.Fprintf(out, "%s%d\n", label("variables"), len(meta.Variables))
	fmt.Fprintf(out, "%s%d\n", label("types"), len(meta.Types))

	if inspectShowFunctions {
		fmt.Fprintln(out, render(titleStyle, "functions"))
		for i, fn := range meta.Functions {
			path := ""
			if int(fn.PathID) < len(tr.Paths) {
				path = tr.Paths[fn.PathID]
			}
			fmt.Fprintf(out, "  %4d  %s %s\n", i, fn.Name, render(dimStyle, fmt.Sprintf("%s:%d", path, fn.Line)))
		}
	}
	if inspectShowTypes {
		fmt.Fprintln(out, render(titleStyle, "types"))
		for i, t := range meta.Types {
			fmt.Fprintf(out, "  %4d  %-8s %s\n", i+1, t.Kind, t.LangType)
		}
	}
}
