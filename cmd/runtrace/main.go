package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"runtrace/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "runtrace",
	Short: "Runtime trace recorder and trace tools",
	Long: `runtrace records program executions into trace directories and
inspects, dumps and converts existing traces.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareRun,
	PersistentPostRun: func(*cobra.Command, []string) { closeDiag(false) },
}

// main registers subcommands and global flags, then executes the root
// command. A failing command exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("config", "", "config file (default: runtrace.toml or runtrace.yaml found upwards)")
	rootCmd.PersistentFlags().String("diag", "", "write recorder diagnostics to file (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("diag-level", "", "diagnostics level (off|error|info|debug)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile of the run to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("exec-trace", "", "write a Go execution trace of the run to file")

	if err := rootCmd.Execute(); err != nil {
		closeDiag(true)
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
