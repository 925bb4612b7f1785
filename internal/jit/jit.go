// Package jit executes a lowered module via LLVM's MCJIT, mapping the
// `alloc`/`_strcat` externs the lowering engine emits onto the native
// support library and invoking the module's `.main` entry point through a
// cgo trampoline (Go cannot call an arbitrary function-pointer address as
// a typed function directly).
package jit

import (
	"fmt"
	"time"

	"tinygo.org/x/go-llvm"

	"github.com/clowder-lang/clowder/internal/support"
)

// Result is the outcome of executing a compiled module's `.main` function.
type Result struct {
	ReturnValue int64
	Elapsed     time.Duration
}

// Run JIT-compiles mod and calls its `.main` function, returning the i64 it
// returned and how long the call took. mod must already contain the
// `alloc` and `_strcat` function declarations installed by the lowering
// engine's built-ins.
func Run(mod llvm.Module) (Result, error) {
	llvm.LinkInMCJIT()
	if err := llvm.InitializeNativeTarget(); err != nil {
		return Result{}, fmt.Errorf("jit: initialize native target: %w", err)
	}
	if err := llvm.InitializeNativeAsmPrinter(); err != nil {
		return Result{}, fmt.Errorf("jit: initialize native asm printer: %w", err)
	}

	if err := llvm.VerifyModule(mod, llvm.PrintMessageAction); err != nil {
		return Result{}, fmt.Errorf("jit: module verification failed: %w", err)
	}

	options := llvm.NewMCJITCompilerOptions()
	options.SetMCJITOptimizationLevel(3)
	engine, err := llvm.NewMCJITCompiler(mod, options)
	if err != nil {
		return Result{}, fmt.Errorf("jit: create MCJIT compiler: %w", err)
	}
	defer engine.Dispose()

	if allocFn := mod.NamedFunction("alloc"); !allocFn.IsNil() {
		engine.AddGlobalMapping(allocFn, support.AllocAddr())
	}
	if strcatFn := mod.NamedFunction("_strcat"); !strcatFn.IsNil() {
		engine.AddGlobalMapping(strcatFn, support.StrcatAddr())
	}

	mainFn := mod.NamedFunction(".main")
	if mainFn.IsNil() {
		return Result{}, fmt.Errorf("jit: module has no .main function")
	}
	addr := engine.GetFunctionAddress(".main")
	if addr == 0 {
		return Result{}, fmt.Errorf("jit: could not resolve address of .main")
	}

	start := time.Now()
	ret := callEntry(addr)
	elapsed := time.Since(start)

	return Result{ReturnValue: ret, Elapsed: elapsed}, nil
}
