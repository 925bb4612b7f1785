package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/lexer"
	"github.com/clowder-lang/clowder/internal/parser"
)

// fakeFS backs Compiler.ReadFile with an in-memory map keyed by absolute
// path, so import tests don't need to touch the real filesystem.
func fakeFS(files map[string]string) func(string) (string, error) {
	return func(path string) (string, error) {
		if src, ok := files[path]; ok {
			return src, nil
		}
		return "", fmt.Errorf("no such file: %s", path)
	}
}

func lowerWithImports(t *testing.T, src string, files map[string]string) (*Compiler, *errors.Handler) {
	t.Helper()
	errs := errors.NewHandler()
	toks := lexer.Sanitize(lexer.Tokenize(src, "main.clw", errs))
	program := parser.New(toks, errs).Parse()
	if errs.HasError() {
		t.Fatalf("unexpected parse errors: %v", errs.Errors())
	}

	comp := New("test", errs)
	t.Cleanup(comp.Dispose)
	comp.ReadFile = fakeFS(files)
	comp.LowerProgram(program)
	return comp, errs
}

// TestImportSplicesStatementsIntoCurrentBlock: the imported file's
// statements execute where the import statement appears, in the importing
// function's own block and scope.
func TestImportSplicesStatementsIntoCurrentBlock(t *testing.T) {
	files := map[string]string{
		"/abs/helper.clw": "var h: int = 7;",
	}
	src := `import "/abs/helper.clw";
	var x: int = h + 1;`

	comp, errs := lowerWithImports(t, src, files)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if strings.Count(ir, "alloca i64") != 2 {
		t.Errorf("expected two i64 allocas (h and x), got:\n%s", ir)
	}
}

// TestImportAlreadyImportedWarnsAndSkips: a second import of the same
// absolute path emits a warning and contributes no further code.
func TestImportAlreadyImportedWarnsAndSkips(t *testing.T) {
	files := map[string]string{
		"/abs/helper.clw": "var h: int = 1;",
	}
	src := `import "/abs/helper.clw";
	import "/abs/helper.clw";`

	comp, errs := lowerWithImports(t, src, files)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	if len(errs.Warnings()) != 1 {
		t.Fatalf("expected exactly 1 warning for the repeat import, got %d: %v", len(errs.Warnings()), errs.Warnings())
	}
	ir := comp.Module().String()
	if strings.Count(ir, "alloca i64") != 1 {
		t.Errorf("expected the second import to contribute no further code, got:\n%s", ir)
	}
}

// TestImportCycleReportsImportError: a imports b, b imports a back.
func TestImportCycleReportsImportError(t *testing.T) {
	files := map[string]string{
		"/abs/a.clw": `import "/abs/b.clw";`,
		"/abs/b.clw": `import "/abs/a.clw";`,
	}
	src := `import "/abs/a.clw";`

	_, errs := lowerWithImports(t, src, files)
	if !errs.HasError() {
		t.Fatal("expected a cyclic import error")
	}
	found := false
	for _, e := range errs.Errors() {
		if e.Kind == errors.Import && strings.Contains(e.Message, "cyclic") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a cyclic Import error, got: %v", errs.Errors())
	}
}

// TestImportUnreadableFileReportsImportError.
func TestImportUnreadableFileReportsImportError(t *testing.T) {
	src := `import "/abs/missing.clw";`
	_, errs := lowerWithImports(t, src, map[string]string{})
	if !errs.HasError() {
		t.Fatal("expected an import error for an unreadable file")
	}
	if errs.Errors()[0].Kind != errors.Import {
		t.Errorf("expected Import error, got %s", errs.Errors()[0].Kind)
	}
}
