package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "clowder",
	Short: "Clowder compiler and JIT runner",
	Long: `clowder is a whole-program, ahead-of-time compiler for the Clowder
language: a lexer with automatic semicolon insertion, a Pratt-parsed
recursive-descent grammar with panic-mode error recovery, a scoped
environment, and an AST-to-LLVM-IR lowering engine executed via MCJIT.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
