// Package codegen lowers a sanitized, parsed program into an LLVM IR
// module: type-driven instruction selection, numeric promotion, a
// heap-string convention, and structured control-flow lowering (if/else,
// while with break/continue, recursion).
package codegen

import (
	"tinygo.org/x/go-llvm"

	"github.com/clowder-lang/clowder/internal/ast"
	"github.com/clowder-lang/clowder/internal/env"
	"github.com/clowder-lang/clowder/internal/errors"
	"github.com/clowder-lang/clowder/internal/token"
)

// Compiler owns the IR module, the current builder, the current
// environment, and the break/continue target stacks for the compilation
// currently in progress. It is not safe for concurrent use — the pipeline
// is single-threaded by design.
type Compiler struct {
	ctx     llvm.Context
	builder llvm.Builder
	module  llvm.Module
	errs    *errors.Handler

	globalEnv *env.Environment
	curEnv    *env.Environment

	curFn llvm.Value

	breakTargets    []llvm.BasicBlock
	continueTargets []llvm.BasicBlock

	// import tracking: absolute path -> fully lowered; in-progress set
	// detects cycles.
	imported   map[string]bool
	importing  map[string]bool

	// ReadFile abstracts file access for `import`, defaulting to the OS
	// filesystem; tests substitute an in-memory fake.
	ReadFile func(path string) (string, error)
}

// New creates a Compiler with a module named moduleName, the runtime
// library's built-in functions declared in that module, and the built-in
// constants pre-installed in the root environment.
func New(moduleName string, errs *errors.Handler) *Compiler {
	ctx := llvm.NewContext()
	c := &Compiler{
		ctx:       ctx,
		builder:   ctx.NewBuilder(),
		module:    ctx.NewModule(moduleName),
		errs:      errs,
		globalEnv: env.New(),
		imported:  make(map[string]bool),
		importing: make(map[string]bool),
	}
	c.curEnv = c.globalEnv
	c.installBuiltins()
	return c
}

// Module returns the underlying LLVM module, e.g. for IR text dumps or for
// handing to the JIT.
func (c *Compiler) Module() llvm.Module {
	return c.module
}

// Dispose releases the underlying LLVM context and builder.
func (c *Compiler) Dispose() {
	c.builder.Dispose()
	c.module.Dispose()
	c.ctx.Dispose()
}

// LowerProgram builds `.main` and lowers every top-level statement into it,
// finishing with a default `ret 0`. Function declarations encountered at
// top level are lowered eagerly as module-level functions rather than code
// inside `.main`.
func (c *Compiler) LowerProgram(prog *ast.Program) {
	mainType := llvm.FunctionType(llvm.Int64Type(), nil, false)
	c.curFn = llvm.AddFunction(c.module, ".main", mainType)
	entry := llvm.AddBasicBlock(c.curFn, "entry")
	c.builder.SetInsertPointAtEnd(entry)

	for _, stmt := range prog.Statements {
		c.lowerStatement(stmt)
		if c.blockTerminated() {
			break
		}
	}

	if !c.blockTerminated() {
		c.builder.CreateRet(llvm.ConstInt(llvm.Int64Type(), 0, true))
	}
}

// blockTerminated reports whether the builder's current insertion block
// already ends in a terminator (ret/br), so lowering must not append
// further instructions to it.
func (c *Compiler) blockTerminated() bool {
	bb := c.builder.GetInsertBlock()
	if bb.IsNil() {
		return false
	}
	last := bb.LastInstruction()
	if last.IsNil() {
		return false
	}
	switch last.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.IndirectBr, llvm.Unreachable:
		return true
	}
	return false
}

func (c *Compiler) lowerStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Var:
		c.lowerVar(s)
	case *ast.Assign:
		c.lowerAssign(s)
	case *ast.Function:
		c.lowerFunctionDecl(s)
	case *ast.Return:
		c.lowerReturn(s)
	case *ast.If:
		c.lowerIf(s)
	case *ast.While:
		c.lowerWhile(s)
	case *ast.Break:
		c.lowerBreak(s)
	case *ast.Continue:
		c.lowerContinue(s)
	case *ast.Import:
		c.lowerImport(s)
	case *ast.ExpressionStatement:
		if s.Expr != nil {
			c.lowerExpression(s.Expr)
		}
	default:
		c.errs.Error(errors.Type, stmt.Pos(), "internal error: unhandled statement %T", stmt)
	}
}

// lowerVar lowers a declaration: default value if no initializer,
// fresh alloca for a new name, or a store into the existing slot if the
// same name is re-declared in the current frame (overwrite rather than
// error).
func (c *Compiler) lowerVar(v *ast.Var) {
	declKind, ok := kindFromTypeName(v.DeclaredType)
	if !ok {
		c.errs.Error(errors.Type, v.Pos(), "unknown type %q", v.DeclaredType)
		return
	}

	if declKind == KVoid {
		c.errs.Error(errors.Type, v.Pos(), "no default value for declared type %q", v.DeclaredType)
		return
	}

	var val llvm.Value
	if v.Init != nil {
		tv, ok := c.lowerExpression(v.Init)
		if !ok {
			return
		}
		tv = c.coerceTo(tv, declKind, v.Pos())
		val = tv.Value
	} else {
		val = c.defaultValue(declKind)
	}

	if entry, ok := c.curEnv.LookupLocal(v.Name); ok {
		slot := entry.Value.(llvm.Value)
		c.builder.CreateStore(val, slot)
		return
	}

	slot := c.builder.CreateAlloca(llvmType(declKind), v.Name)
	c.builder.CreateStore(val, slot)
	c.curEnv.Define(v.Name, slot, declKind)
}

func (c *Compiler) lowerAssign(a *ast.Assign) {
	entry, ok := c.curEnv.Lookup(a.Target.Name)
	if !ok {
		c.errs.Error(errors.Name, a.Pos(), "assignment to undefined name %q", a.Target.Name)
		return
	}
	slot := entry.Value.(llvm.Value)
	slotKind := entry.Type.(Kind)

	rhs, ok := c.lowerExpression(a.RHS)
	if !ok {
		return
	}

	current := typedValue{Value: c.builder.CreateLoad(slot, a.Target.Name), Kind: slotKind}

	result, ok := c.applyAssignOp(a.Op, current, rhs, a.Pos())
	if !ok {
		return
	}
	result = c.coerceTo(result, slotKind, a.Pos())
	c.builder.CreateStore(result.Value, slot)
}

func (c *Compiler) applyAssignOp(op token.Kind, cur, rhs typedValue, pos token.Position) (typedValue, bool) {
	if op == token.ASSIGN {
		return rhs, true
	}
	if cur.Kind == KStr && rhs.Kind == KStr {
		if op != token.PLUS_EQ {
			c.errs.Error(errors.Type, pos, "operator %s is not defined for str", op)
			return typedValue{}, false
		}
		return c.strcat(cur, rhs), true
	}

	var infixOp string
	switch op {
	case token.PLUS_EQ:
		infixOp = "+"
	case token.MINUS_EQ:
		infixOp = "-"
	case token.STAR_EQ:
		infixOp = "*"
	case token.SLASH_EQ:
		infixOp = "/"
	case token.PERCENT_EQ:
		infixOp = "%"
	case token.POW_EQ:
		infixOp = "**"
	default:
		c.errs.Error(errors.Type, pos, "unsupported assignment operator %s", op)
		return typedValue{}, false
	}
	return c.applyBinaryOp(infixOp, cur, rhs, pos)
}

// lowerFunctionDecl builds the LLVM function, lowers its body in a fresh
// child environment rooted at the module scope (nested functions never
// capture enclosing locals — see Design Notes), and binds the function
// name both inside its own body (for recursion) and in the enclosing
// environment (so later code can call it).
func (c *Compiler) lowerFunctionDecl(f *ast.Function) {
	if existing := c.module.NamedFunction(f.Name); !existing.IsNil() {
		c.errs.Error(errors.Name, f.Pos(), "function %q already declared", f.Name)
		return
	}

	retKind, ok := kindFromTypeName(f.ReturnType)
	if !ok {
		c.errs.Error(errors.Type, f.Pos(), "unknown return type %q", f.ReturnType)
		return
	}

	paramTypes := make([]llvm.Type, len(f.Params))
	paramKinds := make([]Kind, len(f.Params))
	for i, p := range f.Params {
		k, ok := kindFromTypeName(p.Type)
		if !ok {
			c.errs.Error(errors.Type, f.Pos(), "unknown parameter type %q", p.Type)
			return
		}
		paramTypes[i] = llvmType(k)
		paramKinds[i] = k
	}

	fnType := llvm.FunctionType(llvmType(retKind), paramTypes, false)
	fn := llvm.AddFunction(c.module, f.Name, fnType)
	for i, p := range fn.Params() {
		p.SetName(f.Params[i].Name)
	}

	// Bind in the enclosing environment first so the declaration is visible
	// for calls that precede its body being fully lowered (and so a
	// top-level sibling function can call it).
	c.curEnv.Define(f.Name, fn, funcSignature{ret: retKind, params: paramKinds})

	savedBuilder := c.builder
	savedEnv := c.curEnv
	savedFn := c.curFn

	c.builder = c.ctx.NewBuilder()
	defer c.builder.Dispose()

	entry := llvm.AddBasicBlock(fn, "entry")
	c.builder.SetInsertPointAtEnd(entry)

	// Nested functions are emitted at module scope: the child frame's
	// parent is the global frame, never the lexically enclosing function's
	// frame, so references to enclosing locals fail lookup exactly like an
	// undefined name would.
	c.curEnv = env.NewEnclosed(c.globalEnv)
	c.curFn = fn

	// Recursion: bind the function name inside its own frame too.
	c.curEnv.Define(f.Name, fn, funcSignature{ret: retKind, params: paramKinds})

	for i, p := range fn.Params() {
		slot := c.builder.CreateAlloca(p.Type(), f.Params[i].Name)
		c.builder.CreateStore(p, slot)
		c.curEnv.Define(f.Params[i].Name, slot, paramKinds[i])
	}

	for _, stmt := range f.Body {
		c.lowerStatement(stmt)
		if c.blockTerminated() {
			break
		}
	}
	if !c.blockTerminated() {
		if retKind == KVoid {
			c.builder.CreateRetVoid()
		} else {
			c.errs.Error(errors.Type, f.Pos(), "function %q does not return on all paths", f.Name)
			c.builder.CreateRet(c.defaultValue(retKind))
		}
	}

	c.builder = savedBuilder
	c.curEnv = savedEnv
	c.curFn = savedFn
}

// funcSignature is the Kind-level type handle bound to a function name,
// used to validate calls at lowering time.
type funcSignature struct {
	ret    Kind
	params []Kind
}

func (c *Compiler) lowerReturn(r *ast.Return) {
	if r.Value == nil {
		c.builder.CreateRetVoid()
		return
	}
	tv, ok := c.lowerExpression(r.Value)
	if !ok {
		return
	}
	c.builder.CreateRet(tv.Value)
}

func (c *Compiler) lowerIf(stmt *ast.If) {
	cond, ok := c.lowerExpression(stmt.Cond)
	if !ok {
		return
	}
	cond = c.coerceTo(cond, KBool, stmt.Pos())

	thenBB := llvm.AddBasicBlock(c.curFn, "if.then")

	if len(stmt.ElseBody) == 0 {
		mergeBB := llvm.AddBasicBlock(c.curFn, "if.merge")
		c.builder.CreateCondBr(cond.Value, thenBB, mergeBB)

		c.builder.SetInsertPointAtEnd(thenBB)
		c.lowerBlock(stmt.ThenBody)
		if !c.blockTerminated() {
			c.builder.CreateBr(mergeBB)
		}

		c.builder.SetInsertPointAtEnd(mergeBB)
		return
	}

	elseBB := llvm.AddBasicBlock(c.curFn, "if.else")
	mergeBB := llvm.AddBasicBlock(c.curFn, "if.merge")
	c.builder.CreateCondBr(cond.Value, thenBB, elseBB)

	c.builder.SetInsertPointAtEnd(thenBB)
	c.lowerBlock(stmt.ThenBody)
	if !c.blockTerminated() {
		c.builder.CreateBr(mergeBB)
	}

	c.builder.SetInsertPointAtEnd(elseBB)
	c.lowerBlock(stmt.ElseBody)
	if !c.blockTerminated() {
		c.builder.CreateBr(mergeBB)
	}

	c.builder.SetInsertPointAtEnd(mergeBB)
}

// lowerBlock lowers a nested statement list in the current frame (If/While
// bodies share their enclosing function's environment — only function
// bodies get a fresh frame).
func (c *Compiler) lowerBlock(stmts []ast.Statement) {
	for _, s := range stmts {
		c.lowerStatement(s)
		if c.blockTerminated() {
			return
		}
	}
}

// lowerWhile lowers a while loop to two loop-owned blocks: the condition is
// tested once in the pre-loop block, then `while.loop` holds the body
// statements followed by a re-test, branching back to its own top or out to
// `while.exit`. `continue` targets the top of `while.loop` directly, so it
// re-runs the body unconditionally and skips the condition re-check until
// the body completes naturally.
func (c *Compiler) lowerWhile(w *ast.While) {
	loopBB := llvm.AddBasicBlock(c.curFn, "while.loop")
	exitBB := llvm.AddBasicBlock(c.curFn, "while.exit")

	cond, ok := c.lowerExpression(w.Cond)
	if !ok {
		return
	}
	cond = c.coerceTo(cond, KBool, w.Pos())
	c.builder.CreateCondBr(cond.Value, loopBB, exitBB)

	c.breakTargets = append(c.breakTargets, exitBB)
	c.continueTargets = append(c.continueTargets, loopBB)

	c.builder.SetInsertPointAtEnd(loopBB)
	c.lowerBlock(w.Body)
	if !c.blockTerminated() {
		retest, ok := c.lowerExpression(w.Cond)
		if !ok {
			c.breakTargets = c.breakTargets[:len(c.breakTargets)-1]
			c.continueTargets = c.continueTargets[:len(c.continueTargets)-1]
			return
		}
		retest = c.coerceTo(retest, KBool, w.Pos())
		c.builder.CreateCondBr(retest.Value, loopBB, exitBB)
	}

	c.breakTargets = c.breakTargets[:len(c.breakTargets)-1]
	c.continueTargets = c.continueTargets[:len(c.continueTargets)-1]

	c.builder.SetInsertPointAtEnd(exitBB)
}

func (c *Compiler) lowerBreak(b *ast.Break) {
	if len(c.breakTargets) == 0 {
		c.errs.Error(errors.ControlFlow, b.Pos(), "'break' outside of loop")
		return
	}
	c.builder.CreateBr(c.breakTargets[len(c.breakTargets)-1])
}

func (c *Compiler) lowerContinue(ct *ast.Continue) {
	if len(c.continueTargets) == 0 {
		c.errs.Error(errors.ControlFlow, ct.Pos(), "'continue' outside of loop")
		return
	}
	c.builder.CreateBr(c.continueTargets[len(c.continueTargets)-1])
}

// coerceTo promotes an int to float (signed-int-to-float) when target is
// KFloat, or validates the value already matches target; anything else is
// a type error.
func (c *Compiler) coerceTo(tv typedValue, target Kind, pos token.Position) typedValue {
	if tv.Kind == target {
		return tv
	}
	if tv.Kind == KInt && target == KFloat {
		return typedValue{Value: c.builder.CreateSIToFP(tv.Value, llvm.DoubleType(), ""), Kind: KFloat}
	}
	c.errs.Error(errors.Type, pos, "cannot use %s value where %s is expected", tv.Kind, target)
	return tv
}
