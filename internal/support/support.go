// Package support provides the tiny native runtime the lowering engine
// assumes is linked into every compiled program: a heap allocator for
// strings and a concatenation helper. Both are implemented in C and
// exposed as cgo-callable addresses so the JIT's execution engine can map
// them directly onto the `alloc`/`_strcat` externs declared in the IR
// module, mirroring how the reference implementation loads them from a
// small shared library at run time.
package support

/*
#include <stdlib.h>
#include <string.h>

static char *clowder_alloc(long long size) {
	return (char *)malloc((size_t)size);
}

static char *clowder_strcat(char *a, char *b) {
	size_t la = strlen(a);
	size_t lb = strlen(b);
	char *out = (char *)malloc(la + lb + 1);
	memcpy(out, a, la);
	memcpy(out + la, b, lb + 1);
	return out;
}
*/
import "C"

import "unsafe"

// AllocAddr returns the entry address of the native allocator, for use
// with an execution engine's global-mapping API.
func AllocAddr() unsafe.Pointer {
	return unsafe.Pointer(C.clowder_alloc)
}

// StrcatAddr returns the entry address of the native string-concatenation
// helper.
func StrcatAddr() unsafe.Pointer {
	return unsafe.Pointer(C.clowder_strcat)
}

// Alloc exposes the allocator directly to Go callers (used by tests that
// want to exercise the native side without going through the JIT).
func Alloc(size int64) unsafe.Pointer {
	return unsafe.Pointer(C.clowder_alloc(C.longlong(size)))
}

// Strcat exposes the native concatenation helper directly to Go callers.
func Strcat(a, b *byte) unsafe.Pointer {
	return unsafe.Pointer(C.clowder_strcat((*C.char)(unsafe.Pointer(a)), (*C.char)(unsafe.Pointer(b))))
}
