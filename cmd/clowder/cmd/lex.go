package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/lexer"
	"github.com/clowder-lang/clowder/internal/token"
)

var (
	showPos    bool
	showKind   bool
	onlyErrors bool
	noSanitize bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a Clowder file or expression",
	Long: `Tokenize (lex) a Clowder program, run automatic semicolon insertion, and
print the resulting tokens. Useful for debugging the lexer and the ASI pass.

Examples:
  clowder lex script.clw
  clowder lex --show-kind --show-pos script.clw
  clowder lex --no-sanitize -e "var x: int = 1"`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "tokenize inline source instead of reading from file")
	lexCmd.Flags().BoolVar(&showPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&showKind, "show-kind", false, "show token kind names")
	lexCmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "show only illegal tokens")
	lexCmd.Flags().BoolVar(&noSanitize, "no-sanitize", false, "skip automatic semicolon insertion")
}

func lexScript(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	errs := errors.NewHandler()
	toks := lexer.Tokenize(input, filename, errs)
	if !noSanitize {
		toks = lexer.Sanitize(toks)
	}

	errCount := 0
	for _, tok := range toks {
		if onlyErrors && tok.Kind != token.ILLEGAL {
			continue
		}
		if tok.Kind == token.ILLEGAL {
			errCount++
		}
		printToken(tok)
	}

	if out, ok := errs.Report(false); out != "" {
		fmt.Print(out)
		_ = ok
	}

	if onlyErrors && errCount > 0 {
		return fmt.Errorf("found %d illegal token(s)", errCount)
	}
	return nil
}

func printToken(tok token.Token) {
	var output string
	if showKind {
		output = fmt.Sprintf("[%-12s]", tok.Kind)
	}
	if tok.Literal == "" {
		output += fmt.Sprintf(" %s", tok.Kind)
	} else {
		output += fmt.Sprintf(" %q", tok.Literal)
	}
	if showPos {
		output += fmt.Sprintf(" @%d:%d", tok.PosStart.Line, tok.PosStart.Column)
	}
	fmt.Println(output)
}
