package support

import (
	"testing"
	"unsafe"
)

func TestAllocReturnsUsableBuffer(t *testing.T) {
	ptr := Alloc(8)
	if ptr == nil {
		t.Fatal("Alloc returned nil")
	}
	buf := (*[8]byte)(ptr)
	buf[0] = 'x'
	if buf[0] != 'x' {
		t.Fatal("allocated buffer is not writable")
	}
}

func TestStrcatConcatenates(t *testing.T) {
	a := append([]byte("foo"), 0)
	b := append([]byte("bar"), 0)

	ptr := Strcat(&a[0], &b[0])
	if ptr == nil {
		t.Fatal("Strcat returned nil")
	}

	out := make([]byte, 0, 7)
	base := (*[7]byte)(unsafe.Pointer(ptr))
	for i := 0; i < 6; i++ {
		out = append(out, base[i])
	}
	if string(out) != "foobar" {
		t.Fatalf("Strcat(%q, %q) = %q, want %q", "foo", "bar", out, "foobar")
	}
}
