package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"runtrace/internal/tracefile"
	"runtrace/internal/tracelog"
	"runtrace/internal/types"
	"runtrace/internal/values"
)

var (
	dumpWidth int
	dumpLimit int
)

func init() {
	dumpCmd.Flags().IntVar(&dumpWidth, "width", 120, "truncate lines to this many columns (0 = no limit)")
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, "print at most this many records (0 = all)")
}

var dumpCmd = &cobra.Command{
	Use:   "dump DIR",
	Short: "Print the records of a trace, one per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := tracefile.Read(args[0])
		if err != nil {
			return err
		}
		dumpRecords(cmd.OutOrStdout(), tr, dumpWidth, dumpLimit)
		return nil
	},
}

func dumpRecords(out io.Writer, tr *tracefile.Trace, width, limit int) {
	d := dumper{tr: tr, names: types.Table(tr.Metadata.Types)}
	for i, r := range tr.Records {
		if limit > 0 && i >= limit {
			fmt.Fprintf(out, "... %d more\n", len(tr.Records)-limit)
			return
		}
		line := truncate(d.describe(r), width)
		fmt.Fprintf(out, "%6d  %s%s\n", i, kindText(r.Kind.String()), line)
	}
}

type dumper struct {
	tr    *tracefile.Trace
	names types.Table
}

func (d dumper) describe(r tracelog.Record) string {
	switch r.Kind {
	case tracelog.RecStep:
		return fmt.Sprintf("%s:%d", d.path(r.Step.PathID), r.Step.Line)
	case tracelog.RecCall:
		args := make([]string, len(r.Call.Args))
		for i, a := range r.Call.Args {
			args[i] = d.variable(a.VariableID) + "=" + values.Format(a.Value, d.names)
		}
		return fmt.Sprintf("%s(%s)", d.function(r.Call.FunctionID), strings.Join(args, ", "))
	case tracelog.RecReturn:
		return values.Format(r.Return.ReturnValue, d.names)
	case tracelog.RecValue:
		return d.variable(r.Value.VariableID) + " = " + values.Format(r.Value.Value, d.names)
	case tracelog.RecEvent:
		return fmt.Sprintf("%s %q", r.Event.Kind, r.Event.Content)
	case tracelog.RecThreadStart, tracelog.RecThreadExit:
		return fmt.Sprintf("thread %d", r.Thread)
	default:
		return ""
	}
}

func (d dumper) path(id tracelog.PathID) string {
	if int(id) < len(d.tr.Paths) {
		return d.tr.Paths[id]
	}
	return fmt.Sprintf("<path %d>", id)
}

func (d dumper) function(id tracelog.FunctionID) string {
	if int(id) < len(d.tr.Metadata.Functions) {
		return d.tr.Metadata.Functions[id].Name
	}
	return fmt.Sprintf("<function %d>", id)
}

func (d dumper) variable(id values.VariableID) string {
	if int(id) < len(d.tr.Metadata.Variables) {
		return d.tr.Metadata.Variables[id]
	}
	return fmt.Sprintf("<variable %d>", id)
}
