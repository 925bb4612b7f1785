package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/lexer"
	"github.com/clowder-lang/clowder/internal/parser"
)

var parseDumpAST bool

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse Clowder source and print the resulting AST",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "parse inline source instead of reading from file")
	parseCmd.Flags().BoolVar(&parseDumpAST, "dump-ast", true, "print each top-level statement's AST text")
}

func runParse(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	errs := errors.NewHandler()
	toks := lexer.Tokenize(input, filename, errs)
	toks = lexer.Sanitize(toks)
	program := parser.New(toks, errs).Parse()

	if out, ok := errs.Report(true); out != "" {
		fmt.Fprint(os.Stderr, out)
		if !ok {
			return fmt.Errorf("parsing failed")
		}
	}

	if parseDumpAST {
		for _, stmt := range program.Statements {
			fmt.Println(stmt.String())
		}
	}
	return nil
}
