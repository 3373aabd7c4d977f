package bindings

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// CAllocator hands out memory from the C heap. Strings placed in a typed
// parameter array that libvirt reads, or that libvirt may free, must come
// from here rather than the Go heap.
type CAllocator struct{}

// CString copies s into a freshly malloc'd NUL-terminated buffer.
func (CAllocator) CString(s string) uintptr {
	if err := LoadLibc(); err != nil {
		panic(err)
	}
	p := c_malloc(uintptr(len(s) + 1))
	if p == 0 {
		panic("bindings: malloc failed")
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p
}

// Free releases memory obtained from CString or allocated by libvirt.
func (CAllocator) Free(p uintptr) {
	if p == 0 {
		return
	}
	if err := LoadLibc(); err != nil {
		panic(err)
	}
	c_free(p)
}

// GoString copies a NUL-terminated C string. A zero pointer yields "".
func GoString(p uintptr) string {
	if p == 0 {
		return ""
	}
	return unix.BytePtrToString((*byte)(unsafe.Pointer(p)))
}

// GoStringFree copies a C string owned by the caller and frees it.
func GoStringFree(p uintptr) string {
	s := GoString(p)
	CAllocator{}.Free(p)
	return s
}

// CStringPtr returns a pointer to a NUL-terminated copy of s in Go memory,
// or nil for the empty string. It is only valid for the duration of a call.
func CStringPtr(s string) *byte {
	if s == "" {
		return nil
	}
	p, err := unix.BytePtrFromString(s)
	if err != nil {
		// s contains a NUL byte; libvirt would have stopped reading there anyway.
		p, _ = unix.BytePtrFromString(s[:strings.IndexByte(s, 0)])
	}
	return p
}
