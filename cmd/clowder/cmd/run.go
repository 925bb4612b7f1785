package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clowder-lang/clowder/internal/codegen"
	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/jit"
	"github.com/clowder-lang/clowder/internal/lexer"
	"github.com/clowder-lang/clowder/internal/parser"
)

var (
	evalExpr string
	dumpAST  bool
	dumpIR   bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile and execute a Clowder program",
	Long: `Compile a Clowder (.clw) source file to LLVM IR and execute it via MCJIT.

Examples:
  # Run a script file
  clowder run program.clw

  # Evaluate inline source
  clowder run -e "var x: int = 2; print(\"%d\n\", x);"

  # Dump the parsed AST or the lowered IR for debugging
  clowder run --dump-ast --dump-ir program.clw`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline source instead of reading from a file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "dump the parsed AST before lowering")
	runCmd.Flags().BoolVar(&dumpIR, "dump-ir", false, "dump the lowered LLVM IR before executing")
}

func runScript(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "compiling %s (%d bytes)\n", filename, len(input))
	}

	errs := errors.NewHandler()

	toks := lexer.Tokenize(input, filename, errs)
	toks = lexer.Sanitize(toks)

	p := parser.New(toks, errs)
	program := p.Parse()

	if dumpAST {
		fmt.Println("AST:")
		for _, stmt := range program.Statements {
			fmt.Println(stmt.String())
		}
		fmt.Println()
	}

	if errs.HasError() {
		out, _ := errs.Report(true)
		fmt.Fprint(os.Stderr, out)
		return fmt.Errorf("parsing failed")
	}

	comp := codegen.New(filename, errs)
	defer comp.Dispose()

	comp.LowerProgram(program)

	if errs.HasError() {
		out, _ := errs.Report(true)
		fmt.Fprint(os.Stderr, out)
		return fmt.Errorf("lowering failed")
	}

	if dumpIR {
		fmt.Println("IR:")
		fmt.Println(comp.Module().String())
	}

	if out, ok := errs.Report(true); out != "" {
		fmt.Fprint(os.Stderr, out)
		_ = ok
	}

	result, err := jit.Run(comp.Module())
	if err != nil {
		return err
	}

	fmt.Printf("\n\nProgram returned: %d\n=== Executed in %s. ===\n", result.ReturnValue, result.Elapsed)
	return nil
}

func readSource(eval string, args []string) (input, filename string, err error) {
	if eval != "" {
		return eval, "<eval>", nil
	}
	if len(args) == 1 {
		content, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], readErr)
		}
		return string(content), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e flag for inline source")
}
