// Package bindings provides very low-level bindings to libvirt and the C
// allocator, loaded at runtime with purego so the module builds without cgo.
//
// Nothing here checks libvirt return codes or reads libvirt's error state;
// that belongs in the packages layered on top (virterror, event, libvirt).
package bindings

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"
)

// LibraryPathEnv overrides the shared object loaded by Load.
const LibraryPathEnv = "VIRT_LIBVIRT_PATH"

// ErrUnavailable is returned when libvirt cannot be loaded on this host.
var ErrUnavailable = errors.New("libvirt unavailable")

var (
	libcOnce sync.Once
	libcErr  error

	loadOnce sync.Once
	loadErr  error

	libvirtLib uintptr
	libcLib    uintptr
)

// LoadLibc binds the C allocator. Load calls it implicitly; it is exposed so
// the allocator can be used on hosts without libvirt.
func LoadLibc() error {
	libcOnce.Do(func() {
		var err error
		libcLib, err = openFirst(libcCandidates)
		if err != nil {
			libcErr = fmt.Errorf("dlopen libc: %w", err)
			return
		}
		registerLibc(libcLib)
	})
	return libcErr
}

// Load loads libvirt and libc and binds every symbol used by this module.
// It is safe to call concurrently; only the first call does any work.
func Load() error {
	loadOnce.Do(func() {
		if err := LoadLibc(); err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return
		}

		candidates := libvirtCandidates
		if path := os.Getenv(LibraryPathEnv); path != "" {
			candidates = []string{path}
		}
		var err error
		libvirtLib, err = openFirst(candidates)
		if err != nil {
			loadErr = fmt.Errorf("%w: dlopen libvirt: %v", ErrUnavailable, err)
			return
		}
		if err := registerLibvirt(libvirtLib); err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return
		}

		// libvirt prints every error to stderr unless a handler is installed.
		vir_set_error_func(0, NewCallback(ignoreError))
	})
	return loadErr
}

func MustLoad() {
	if err := Load(); err != nil {
		panic(err)
	}
}

func ignoreError(userData, err uintptr) uintptr {
	return 0
}

// ---- Function variables (populated by Load) ----

// libc
var (
	c_malloc func(size uintptr) uintptr
	c_free   func(ptr uintptr)
)

// Errors
var (
	vir_get_last_error   func() unsafe.Pointer
	vir_reset_last_error func()
	vir_set_error_func   func(userData uintptr, handler uintptr)
)

// Connect
var (
	vir_connect_open             func(name string) uintptr
	vir_connect_open_read_only   func(name string) uintptr
	vir_connect_close            func(conn uintptr) int32
	vir_connect_ref              func(conn uintptr) int32
	vir_connect_get_type         func(conn uintptr) uintptr
	vir_connect_get_version      func(conn uintptr, hvVer *uint64) int32
	vir_connect_get_lib_version  func(conn uintptr, libVer *uint64) int32
	vir_connect_get_hostname     func(conn uintptr) uintptr
	vir_connect_get_uri          func(conn uintptr) uintptr
	vir_connect_is_alive         func(conn uintptr) int32
	vir_connect_list_all_domains func(conn uintptr, domains *uintptr, flags uint32) int32
)

// Domain
var (
	vir_domain_lookup_by_name        func(conn uintptr, name string) uintptr
	vir_domain_lookup_by_uuid_string func(conn uintptr, uuid string) uintptr
	vir_domain_ref                   func(dom uintptr) int32
	vir_domain_free                  func(dom uintptr) int32
	vir_domain_get_name              func(dom uintptr) uintptr
	vir_domain_get_uuid_string       func(dom uintptr, buf *byte) int32
	vir_domain_get_id                func(dom uintptr) uint32
	vir_domain_is_active             func(dom uintptr) int32
	vir_domain_create                func(dom uintptr) int32
	vir_domain_destroy               func(dom uintptr) int32
	vir_domain_suspend               func(dom uintptr) int32
	vir_domain_resume                func(dom uintptr) int32
	vir_domain_shutdown              func(dom uintptr) int32
	vir_domain_get_metadata          func(dom uintptr, typ int32, uri *byte, flags uint32) uintptr
	vir_domain_open_console          func(dom uintptr, devName *byte, st uintptr, flags uint32) int32
	vir_domain_abort_job             func(dom uintptr) int32
)

// Domain typed parameters
var (
	vir_domain_get_memory_parameters          func(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32
	vir_domain_set_memory_parameters          func(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32
	vir_domain_get_numa_parameters            func(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32
	vir_domain_set_numa_parameters            func(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32
	vir_domain_get_blkio_parameters           func(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32
	vir_domain_set_blkio_parameters           func(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32
	vir_domain_get_scheduler_type             func(dom uintptr, nparams *int32) uintptr
	vir_domain_get_scheduler_parameters_flags func(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32
	vir_domain_set_scheduler_parameters_flags func(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32
	vir_domain_get_job_stats                  func(dom uintptr, typ *int32, params *uintptr, nparams *int32, flags uint32) int32
	vir_domain_migrate_to_uri3                func(dom uintptr, dconnuri *byte, params unsafe.Pointer, nparams uint32, flags uint32) int32
	vir_typed_params_clear                    func(params unsafe.Pointer, nparams int32)
	vir_typed_params_free                     func(params uintptr, nparams int32)
)

// Stream
var (
	vir_stream_new                   func(conn uintptr, flags uint32) uintptr
	vir_stream_ref                   func(st uintptr) int32
	vir_stream_free                  func(st uintptr) int32
	vir_stream_finish                func(st uintptr) int32
	vir_stream_abort                 func(st uintptr) int32
	vir_stream_send                  func(st uintptr, data *byte, nbytes uintptr) int32
	vir_stream_recv                  func(st uintptr, data *byte, nbytes uintptr) int32
	vir_stream_event_add_callback    func(st uintptr, events int32, cb uintptr, opaque uintptr, ff uintptr) int32
	vir_stream_event_update_callback func(st uintptr, events int32) int32
	vir_stream_event_remove_callback func(st uintptr) int32
)

// Event loop
var (
	vir_event_register_default_impl func() int32
	vir_event_run_default_impl      func() int32
	vir_event_add_handle            func(fd int32, events int32, cb uintptr, opaque uintptr, ff uintptr) int32
	vir_event_update_handle         func(watch int32, events int32)
	vir_event_remove_handle         func(watch int32) int32
	vir_event_add_timeout           func(timeout int32, cb uintptr, opaque uintptr, ff uintptr) int32
	vir_event_update_timeout        func(timer int32, timeout int32)
	vir_event_remove_timeout        func(timer int32) int32
)
