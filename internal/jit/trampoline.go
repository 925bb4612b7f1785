package jit

/*
#include <stdint.h>

typedef int64_t (*clowder_entry_fn)(void);

static int64_t clowder_call_entry(uintptr_t addr) {
	clowder_entry_fn fn = (clowder_entry_fn)addr;
	return fn();
}
*/
import "C"

// callEntry invokes the zero-argument, i64-returning function living at
// addr. Go cannot call a raw function-pointer address directly, so the
// call is bounced through this C trampoline.
func callEntry(addr uint64) int64 {
	return int64(C.clowder_call_entry(C.uintptr_t(addr)))
}
