package bindings

import (
	"errors"
	"testing"
	"unsafe"
)

func TestErrorLayout(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("layout check only applies to LP64")
	}
	if got := unsafe.Offsetof(Error{}.Message); got != 8 {
		t.Fatalf("Message offset = %d, want 8", got)
	}
	if got := unsafe.Offsetof(Error{}.Level); got != 16 {
		t.Fatalf("Level offset = %d, want 16", got)
	}
	if got := unsafe.Offsetof(Error{}.Conn); got != 24 {
		t.Fatalf("Conn offset = %d, want 24", got)
	}
	if got := unsafe.Sizeof(Error{}); got != 80 {
		t.Fatalf("Sizeof(Error) = %d, want 80", got)
	}
}

func TestCAllocator(t *testing.T) {
	if err := LoadLibc(); err != nil {
		t.Skipf("libc unavailable: %v", err)
	}

	var alloc CAllocator
	p := alloc.CString("it is a very interesting number")
	if p == 0 {
		t.Fatal("CString() returned nil")
	}
	if got := GoString(p); got != "it is a very interesting number" {
		t.Fatalf("GoString() = %q", got)
	}
	alloc.Free(p)

	empty := alloc.CString("")
	if got := GoString(empty); got != "" {
		t.Fatalf("GoString(empty) = %q", got)
	}
	if got := GoStringFree(empty); got != "" {
		t.Fatalf("GoStringFree(empty) = %q", got)
	}
}

func TestGoStringNil(t *testing.T) {
	if got := GoString(0); got != "" {
		t.Fatalf("GoString(0) = %q, want empty", got)
	}
}

func TestCStringPtr(t *testing.T) {
	if CStringPtr("") != nil {
		t.Fatal("CStringPtr(\"\") should be nil")
	}
	p := CStringPtr("serial0")
	if got := GoString(uintptr(unsafe.Pointer(p))); got != "serial0" {
		t.Fatalf("CStringPtr() = %q", got)
	}
	p = CStringPtr("con\x00sole")
	if got := GoString(uintptr(unsafe.Pointer(p))); got != "con" {
		t.Fatalf("CStringPtr() with NUL = %q, want %q", got, "con")
	}
}

func TestLoadReportsUnavailable(t *testing.T) {
	err := Load()
	if err == nil {
		t.Log("libvirt loaded")
		return
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Load() error = %v, want ErrUnavailable", err)
	}
}
