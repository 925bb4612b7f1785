// Command clowder is the entry point for the Clowder compiler: lex, apply
// automatic semicolon insertion, parse, lower to LLVM IR, and execute via
// MCJIT.
package main

import (
	"fmt"
	"os"

	"github.com/clowder-lang/clowder/cmd/clowder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
