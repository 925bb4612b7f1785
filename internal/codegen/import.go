package codegen

import (
	"os"
	"path/filepath"

	"github.com/clowder-lang/clowder/internal/ast"
	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/lexer"
	"github.com/clowder-lang/clowder/internal/parser"
)

// lowerImport splices an imported file into the compilation: it is read, lexed,
// sanitized and parsed exactly like the top-level source, and its
// statements are lowered directly into the current block/environment — an
// import behaves as a textual splice, not a separate compilation unit.
// Cyclic imports are reported once and skipped; a file already fully
// imported emits a one-line warning and contributes no code the second
// time around.
func (c *Compiler) lowerImport(imp *ast.Import) {
	if c.ReadFile == nil {
		c.ReadFile = readFileFromDisk
	}

	path, err := filepath.Abs(imp.FilePath)
	if err != nil {
		c.errs.Error(errors.Import, imp.Pos(), "cannot resolve import path %q: %s", imp.FilePath, err)
		return
	}

	if c.imported[path] {
		c.errs.Warn(imp.Pos(), "%q already imported, skipping", imp.FilePath)
		return
	}
	if c.importing[path] {
		c.errs.Error(errors.Import, imp.Pos(), "cyclic import of %q", imp.FilePath)
		return
	}

	src, err := c.ReadFile(path)
	if err != nil {
		c.errs.Error(errors.Import, imp.Pos(), "cannot read import %q: %s", imp.FilePath, err)
		return
	}

	c.importing[path] = true
	defer delete(c.importing, path)

	toks := lexer.Tokenize(src, path, c.errs)
	toks = lexer.Sanitize(toks)
	prog := parser.New(toks, c.errs).Parse()

	c.lowerBlock(prog.Statements)

	c.imported[path] = true
}

func readFileFromDisk(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
