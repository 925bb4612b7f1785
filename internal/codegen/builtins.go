package codegen

import (
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/clowder-lang/clowder/internal/ast"
	"github.com/clowder-lang/clowder/internal/errors"
)

// installBuiltins declares the runtime support library's externs in the
// module and pre-populates the root environment with the built-in
// constants.
func (c *Compiler) installBuiltins() {
	i8ptr := llvm.PointerType(llvm.Int8Type(), 0)
	i64 := llvm.Int64Type()
	f64 := llvm.DoubleType()

	printfType := llvm.FunctionType(i64, []llvm.Type{i8ptr}, true)
	llvm.AddFunction(c.module, "printf", printfType)

	allocType := llvm.FunctionType(i8ptr, []llvm.Type{i64}, false)
	llvm.AddFunction(c.module, "alloc", allocType)

	memcpyType := llvm.FunctionType(i8ptr, []llvm.Type{i8ptr, i8ptr, i64}, false)
	llvm.AddFunction(c.module, "memcpy", memcpyType)

	strcatType := llvm.FunctionType(i8ptr, []llvm.Type{i8ptr, i8ptr}, false)
	llvm.AddFunction(c.module, "_strcat", strcatType)

	powType := llvm.FunctionType(f64, []llvm.Type{f64, f64}, false)
	llvm.AddFunction(c.module, "pow", powType)

	strlenType := llvm.FunctionType(i64, []llvm.Type{i8ptr}, false)
	llvm.AddFunction(c.module, "strlen", strlenType)

	// `true`/`false` are modeled as plain i1 constants rather than global
	// variables: they are never assigned to, so there is no slot to alloc.
	c.globalEnv.Define("true", llvm.ConstInt(llvm.Int1Type(), 1, false), KBool)
	c.globalEnv.Define("false", llvm.ConstInt(llvm.Int1Type(), 0, false), KBool)
}

// lowerCall dispatches `print`, `pow`, `len` to their built-in lowering and
// everything else to a standard environment-resolved call.
func (c *Compiler) lowerCall(call *ast.Call) (typedValue, bool) {
	switch call.Callee.Name {
	case "print":
		return c.lowerPrintCall(call)
	case "pow":
		return c.lowerPowCall(call)
	case "len":
		return c.lowerLenCall(call)
	default:
		return c.lowerUserCall(call)
	}
}

// lowerPrintCall lowers print's calling convention: the first argument is
// a format string (passed through directly whether it is an identifier
// load or a literal's heap pointer); the rest are forwarded to printf
// unchanged.
func (c *Compiler) lowerPrintCall(call *ast.Call) (typedValue, bool) {
	if len(call.Args) == 0 {
		c.errs.Error(errors.Type, call.Pos(), "print requires at least a format string argument")
		return typedValue{}, false
	}

	args := make([]llvm.Value, 0, len(call.Args))
	for _, a := range call.Args {
		tv, ok := c.lowerExpression(a)
		if !ok {
			return typedValue{}, false
		}
		args = append(args, tv.Value)
	}

	printfFn := c.module.NamedFunction("printf")
	result := c.builder.CreateCall(printfFn, args, "")
	return typedValue{Value: result, Kind: KInt}, true
}

func (c *Compiler) lowerPowCall(call *ast.Call) (typedValue, bool) {
	if len(call.Args) != 2 {
		c.errs.Error(errors.Type, call.Pos(), "pow expects 2 arguments, got %d", len(call.Args))
		return typedValue{}, false
	}
	a, ok := c.lowerExpression(call.Args[0])
	if !ok {
		return typedValue{}, false
	}
	b, ok := c.lowerExpression(call.Args[1])
	if !ok {
		return typedValue{}, false
	}
	return c.applyBinaryOp("**", a, b, call.Pos())
}

func (c *Compiler) lowerLenCall(call *ast.Call) (typedValue, bool) {
	if len(call.Args) != 1 {
		c.errs.Error(errors.Type, call.Pos(), "len expects 1 argument, got %d", len(call.Args))
		return typedValue{}, false
	}
	s, ok := c.lowerExpression(call.Args[0])
	if !ok {
		return typedValue{}, false
	}
	if s.Kind != KStr {
		c.errs.Error(errors.Type, call.Pos(), "len expects a str argument, got %s", s.Kind)
		return typedValue{}, false
	}
	strlenFn := c.module.NamedFunction("strlen")
	result := c.builder.CreateCall(strlenFn, []llvm.Value{s.Value}, "")
	return typedValue{Value: result, Kind: KInt}, true
}

func (c *Compiler) lowerUserCall(call *ast.Call) (typedValue, bool) {
	entry, ok := c.curEnv.Lookup(call.Callee.Name)
	if !ok {
		c.errs.Error(errors.Name, call.Pos(), "call to undefined function %q", call.Callee.Name)
		return typedValue{}, false
	}
	fn, ok := entry.Value.(llvm.Value)
	if !ok {
		c.errs.Error(errors.Name, call.Pos(), "%q is not callable", call.Callee.Name)
		return typedValue{}, false
	}
	sig, ok := entry.Type.(funcSignature)
	if !ok {
		c.errs.Error(errors.Name, call.Pos(), "%q is not callable", call.Callee.Name)
		return typedValue{}, false
	}
	if len(call.Args) != len(sig.params) {
		c.errs.Error(errors.Type, call.Pos(), "%q expects %d argument(s), got %d",
			call.Callee.Name, len(sig.params), len(call.Args))
		return typedValue{}, false
	}

	args := make([]llvm.Value, len(call.Args))
	for i, a := range call.Args {
		tv, ok := c.lowerExpression(a)
		if !ok {
			return typedValue{}, false
		}
		tv = c.coerceTo(tv, sig.params[i], a.Pos())
		args[i] = tv.Value
	}

	result := c.builder.CreateCall(fn, args, "")
	return typedValue{Value: result, Kind: sig.ret}, true
}

// heapString decodes no further than given: s must already be the decoded
// byte sequence. It stages the bytes (plus a NUL terminator, unless
// already present) in a stack alloca and memcpy's them into a fresh heap
// buffer from `alloc`, so every evaluation of a string literal produces a
// fresh allocation — even inside a loop.
func (c *Compiler) heapString(s string) llvm.Value {
	if !strings.HasSuffix(s, "\x00") {
		s += "\x00"
	}

	i8 := llvm.Int8Type()
	i64 := llvm.Int64Type()
	size := int64(len(s))

	arrType := llvm.ArrayType(i8, len(s))
	stackBuf := c.builder.CreateAlloca(arrType, "")
	for i := 0; i < len(s); i++ {
		idx := []llvm.Value{
			llvm.ConstInt(i64, 0, false),
			llvm.ConstInt(i64, uint64(i), false),
		}
		elemPtr := c.builder.CreateGEP(stackBuf, idx, "")
		c.builder.CreateStore(llvm.ConstInt(i8, uint64(s[i]), false), elemPtr)
	}

	i8ptr := llvm.PointerType(i8, 0)
	stackPtr := c.builder.CreateBitCast(stackBuf, i8ptr, "")

	allocFn := c.module.NamedFunction("alloc")
	heapPtr := c.builder.CreateCall(allocFn, []llvm.Value{llvm.ConstInt(i64, uint64(size), false)}, "")

	memcpyFn := c.module.NamedFunction("memcpy")
	c.builder.CreateCall(memcpyFn, []llvm.Value{heapPtr, stackPtr, llvm.ConstInt(i64, uint64(size), false)}, "")

	return heapPtr
}

func (c *Compiler) strcat(a, b typedValue) typedValue {
	strcatFn := c.module.NamedFunction("_strcat")
	result := c.builder.CreateCall(strcatFn, []llvm.Value{a.Value, b.Value}, "")
	return typedValue{Value: result, Kind: KStr}
}

// decodeStringLiteral translates the backslash escapes deferred by the
// lexer (\n \t \r \\ \" \' \0 \b \f \v) into their byte values.
func decodeStringLiteral(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case '\'':
			sb.WriteByte('\'')
		case '0':
			sb.WriteByte(0)
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
