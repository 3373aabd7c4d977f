// Package libvirt wraps connections, domains and streams.
//
// Each wrapper owns one libvirt reference. Clone takes another reference and
// Free (Close for connections) drops it; releasing twice is a no-op. A
// wrapper may be handed between goroutines but is not safe for concurrent
// use.
package libvirt

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/virterror"
)

// ConnectListAllDomainsFlags filters ListAllDomains.
type ConnectListAllDomainsFlags uint32

const (
	ListDomainsActive     ConnectListAllDomainsFlags = 1 << 0
	ListDomainsInactive   ConnectListAllDomainsFlags = 1 << 1
	ListDomainsPersistent ConnectListAllDomainsFlags = 1 << 2
	ListDomainsTransient  ConnectListAllDomainsFlags = 1 << 3
	ListDomainsRunning    ConnectListAllDomainsFlags = 1 << 4
	ListDomainsPaused     ConnectListAllDomainsFlags = 1 << 5
	ListDomainsShutoff    ConnectListAllDomainsFlags = 1 << 6
)

// Connect is a virConnectPtr.
type Connect struct {
	ptr uintptr
}

func open(uri string, fn func(string) uintptr) (*Connect, error) {
	if err := bindings.Load(); err != nil {
		return nil, err
	}
	var ptr uintptr
	err := virterror.Call(func() bool {
		ptr = fn(uri)
		return ptr != 0
	})
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", uri, err)
	}
	return &Connect{ptr: ptr}, nil
}

// Open connects to uri. An empty uri lets libvirt pick its default.
func Open(uri string) (*Connect, error) {
	return open(uri, bindings.VirConnectOpen)
}

// OpenReadOnly connects to uri without write access.
func OpenReadOnly(uri string) (*Connect, error) {
	return open(uri, bindings.VirConnectOpenReadOnly)
}

// Close drops this reference and returns how many remain.
func (c *Connect) Close() (int, error) {
	if c.ptr == 0 {
		return 0, nil
	}
	var refs int32
	err := virterror.Call(func() bool {
		refs = bindings.VirConnectClose(c.ptr)
		return refs >= 0
	})
	c.ptr = 0
	if err != nil {
		return 0, fmt.Errorf("close connection: %w", err)
	}
	return int(refs), nil
}

// Free is Close without the reference count.
func (c *Connect) Free() error {
	_, err := c.Close()
	return err
}

// Clone returns a second wrapper sharing the connection.
func (c *Connect) Clone() (*Connect, error) {
	if err := virterror.Call(func() bool { return bindings.VirConnectRef(c.ptr) == 0 }); err != nil {
		return nil, fmt.Errorf("ref connection: %w", err)
	}
	return &Connect{ptr: c.ptr}, nil
}

// Type returns the hypervisor driver name, such as "QEMU" or "TEST".
func (c *Connect) Type() (string, error) {
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirConnectGetType(c.ptr); return p != 0 }); err != nil {
		return "", fmt.Errorf("connection type: %w", err)
	}
	return bindings.GoString(p), nil
}

// Version returns the hypervisor version as major*1000000+minor*1000+release.
func (c *Connect) Version() (uint64, error) {
	var v uint64
	if err := virterror.Call(func() bool { return bindings.VirConnectGetVersion(c.ptr, &v) == 0 }); err != nil {
		return 0, fmt.Errorf("hypervisor version: %w", err)
	}
	return v, nil
}

// LibVersion returns the version of libvirt the connection talks to.
func (c *Connect) LibVersion() (uint64, error) {
	var v uint64
	if err := virterror.Call(func() bool { return bindings.VirConnectGetLibVersion(c.ptr, &v) == 0 }); err != nil {
		return 0, fmt.Errorf("library version: %w", err)
	}
	return v, nil
}

func (c *Connect) Hostname() (string, error) {
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirConnectGetHostname(c.ptr); return p != 0 }); err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}
	return bindings.GoStringFree(p), nil
}

func (c *Connect) URI() (string, error) {
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirConnectGetURI(c.ptr); return p != 0 }); err != nil {
		return "", fmt.Errorf("uri: %w", err)
	}
	return bindings.GoStringFree(p), nil
}

func (c *Connect) IsAlive() (bool, error) {
	var r int32
	if err := virterror.Call(func() bool { r = bindings.VirConnectIsAlive(c.ptr); return r >= 0 }); err != nil {
		return false, fmt.Errorf("is alive: %w", err)
	}
	return r == 1, nil
}

// ListAllDomains returns every domain matching flags. Zero means all.
func (c *Connect) ListAllDomains(flags ConnectListAllDomainsFlags) ([]*Domain, error) {
	var arr uintptr
	var n int32
	err := virterror.Call(func() bool {
		n = bindings.VirConnectListAllDomains(c.ptr, &arr, uint32(flags))
		return n >= 0
	})
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	if arr == 0 {
		return nil, nil
	}
	defer bindings.CAllocator{}.Free(arr)

	ptrs := unsafe.Slice((*uintptr)(unsafe.Pointer(arr)), n)
	doms := make([]*Domain, 0, n)
	for _, p := range ptrs {
		doms = append(doms, &Domain{ptr: p})
	}
	return doms, nil
}

func (c *Connect) LookupDomainByName(name string) (*Domain, error) {
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirDomainLookupByName(c.ptr, name); return p != 0 }); err != nil {
		return nil, fmt.Errorf("lookup domain %q: %w", name, err)
	}
	return &Domain{ptr: p}, nil
}

// LookupDomainByUUID accepts any form google/uuid parses and looks the
// domain up by its canonical string.
func (c *Connect) LookupDomainByUUID(id string) (*Domain, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("lookup domain: invalid uuid %q: %w", id, err)
	}
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirDomainLookupByUUIDString(c.ptr, u.String()); return p != 0 }); err != nil {
		return nil, fmt.Errorf("lookup domain %s: %w", u, err)
	}
	return &Domain{ptr: p}, nil
}

// NewStream creates a stream for use with OpenConsole and similar calls.
func (c *Connect) NewStream(flags StreamFlags) (*Stream, error) {
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirStreamNew(c.ptr, uint32(flags)); return p != 0 }); err != nil {
		return nil, fmt.Errorf("new stream: %w", err)
	}
	return &Stream{ptr: p}, nil
}
