//go:build !(darwin || freebsd || linux)

package bindings

import "fmt"

var (
	libvirtCandidates []string
	libcCandidates    []string
)

func openFirst(paths []string) (uintptr, error) {
	return 0, fmt.Errorf("dynamic loading not supported on this platform")
}

func NewCallback(fn any) uintptr {
	panic("bindings: callbacks not supported on this platform")
}

func registerLibc(lib uintptr) {}

func registerLibvirt(lib uintptr) error { return nil }
