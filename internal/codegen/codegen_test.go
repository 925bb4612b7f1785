package codegen

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/lexer"
	"github.com/clowder-lang/clowder/internal/parser"
)

func lowerSource(t *testing.T, src string) (*Compiler, *errors.Handler) {
	t.Helper()
	errs := errors.NewHandler()
	toks := lexer.Tokenize(src, "test.clw", errs)
	toks = lexer.Sanitize(toks)
	program := parser.New(toks, errs).Parse()
	if errs.HasError() {
		t.Fatalf("unexpected parse errors: %v", errs.Errors())
	}

	comp := New("test", errs)
	t.Cleanup(comp.Dispose)
	comp.LowerProgram(program)
	return comp, errs
}

// TestArithmeticAndASI lowers arithmetic with precedence across an
// ASI-inserted statement boundary.
func TestArithmeticAndASI(t *testing.T) {
	src := "var x: int = 2 + 3 * 4\nvar y: int = x"
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if !strings.Contains(ir, "alloca i64") {
		t.Errorf("expected an i64 alloca in IR, got:\n%s", ir)
	}
}

// TestRecursionLowersSelfCall: a recursive function must bind its own
// name before lowering its body.
func TestRecursionLowersSelfCall(t *testing.T) {
	src := `def fact(n: int) -> int:
		if n <= 1:
			return 1
		end
		return n * fact(n - 1)
	end
	var r: int = fact(5)`
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if !strings.Contains(ir, "define i64 @fact") {
		t.Errorf("expected fact to be lowered as a module function, got:\n%s", ir)
	}
	if !strings.Contains(ir, "call i64 @fact") {
		t.Errorf("expected a recursive self-call in IR, got:\n%s", ir)
	}
}

// TestWhileBreakContinue lowers a loop containing both break and continue.
func TestWhileBreakContinue(t *testing.T) {
	src := `var i: int = 0
	while i < 10:
		i = i + 1
		if i == 5:
			continue
		end
		if i == 8:
			break
		end
	end`
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if !strings.Contains(ir, "while.loop") || !strings.Contains(ir, "while.exit") {
		t.Errorf("expected while.loop/while.exit blocks, got:\n%s", ir)
	}
}

// TestMixedNumericPromotion: int+float promotes the int operand via
// sitofp.
func TestMixedNumericPromotion(t *testing.T) {
	src := "var a: int = 3\nvar b: float = 2.5\nvar x: float = a + b"
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if !strings.Contains(ir, "sitofp") {
		t.Errorf("expected sitofp promotion in IR, got:\n%s", ir)
	}
	if !strings.Contains(ir, "fadd") {
		t.Errorf("expected fadd for the promoted addition, got:\n%s", ir)
	}
}

// TestStringConcatenation: str + str lowers to a call to the native
// _strcat helper.
func TestStringConcatenation(t *testing.T) {
	src := `var a: str = "foo"
	var b: str = "bar"
	var c: str = a + b`
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if !strings.Contains(ir, "call i8* @_strcat") {
		t.Errorf("expected a call to _strcat, got:\n%s", ir)
	}
}

// TestPowAlwaysYieldsFloat: ** always promotes to f64 regardless of
// operand types; 2 ** 3 lowers to a call of the double-returning pow,
// never to an i64 operation.
func TestPowAlwaysYieldsFloat(t *testing.T) {
	src := "var x: float = 2 ** 3"
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if !strings.Contains(ir, "call double @pow") {
		t.Errorf("expected a call to pow returning double, got:\n%s", ir)
	}
}

// TestBreakOutsideLoopIsControlFlowError.
func TestBreakOutsideLoopIsControlFlowError(t *testing.T) {
	src := "break"
	_, errs := lowerSource(t, src)
	if !errs.HasError() {
		t.Fatal("expected a control-flow error for break outside a loop")
	}
	if errs.Errors()[0].Kind != errors.ControlFlow {
		t.Errorf("expected ControlFlow error, got %s", errs.Errors()[0].Kind)
	}
}

// TestVarWithoutInitOfVoidTypeIsTypeError: `void` has no default value, so a
// `var` declared with that type and no initializer must fail lowering rather
// than allocate storage of an invalid LLVM type.
func TestVarWithoutInitOfVoidTypeIsTypeError(t *testing.T) {
	src := "var x: void;"
	_, errs := lowerSource(t, src)
	if !errs.HasError() {
		t.Fatal("expected a type error for a void var with no initializer")
	}
	if errs.Errors()[0].Kind != errors.Type {
		t.Errorf("expected Type error, got %s", errs.Errors()[0].Kind)
	}
}

// TestNestedFunctionCannotCaptureEnclosingLocal: a nested function body
// referencing an enclosing local must fail name resolution, since nested
// functions are emitted at module scope with no closure over locals.
func TestNestedFunctionCannotCaptureEnclosingLocal(t *testing.T) {
	src := `def outer() -> int:
		var x: int = 1
		def inner() -> int:
			return x
		end
		return inner()
	end`
	_, errs := lowerSource(t, src)
	if !errs.HasError() {
		t.Fatal("expected a name error for capturing an enclosing local")
	}
}

// TestVarRedeclarationReusesSlot: a second `var` of the same name in the
// same frame overwrites the existing slot rather than erroring.
func TestVarRedeclarationReusesSlot(t *testing.T) {
	src := "var x: int = 1\nvar x: int = 2"
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	ir := comp.Module().String()
	if strings.Count(ir, "alloca i64") != 1 {
		t.Errorf("expected var re-declaration to reuse the existing alloca, got:\n%s", ir)
	}
}

// TestIRSnapshot exercises a full small program end-to-end and snapshots
// its lowered IR text, catching accidental regressions in instruction
// selection or block naming.
func TestIRSnapshot(t *testing.T) {
	src := `def add(a: int, b: int) -> int:
		return a + b
	end
	var total: int = add(2, 3)`
	comp, errs := lowerSource(t, src)
	if errs.HasError() {
		t.Fatalf("unexpected lowering errors: %v", errs.Errors())
	}
	snaps.MatchSnapshot(t, "add_function_ir", comp.Module().String())
}
