//go:build darwin || freebsd || linux

package bindings

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ebitengine/purego"
)

var libvirtCandidates = func() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"libvirt.0.dylib",
			"/opt/homebrew/lib/libvirt.0.dylib",
			"/usr/local/lib/libvirt.0.dylib",
		}
	default:
		return []string{"libvirt.so.0", "libvirt.so"}
	}
}()

var libcCandidates = func() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/lib/libSystem.B.dylib"}
	case "freebsd":
		return []string{"libc.so.7"}
	default:
		return []string{"libc.so.6", "libc.so"}
	}
}()

func openFirst(paths []string) (uintptr, error) {
	var errs []string
	for _, path := range paths {
		lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
		errs = append(errs, err.Error())
	}
	return 0, fmt.Errorf("%s", strings.Join(errs, "; "))
}

// NewCallback converts a Go function into a C function pointer. Callbacks
// are never released, so callers must create a fixed number of them.
func NewCallback(fn any) uintptr {
	return purego.NewCallback(fn)
}

type binder struct {
	lib     uintptr
	missing []string
}

func (b *binder) bind(fptr any, name string) {
	sym, err := purego.Dlsym(b.lib, name)
	if err != nil {
		b.missing = append(b.missing, name)
		return
	}
	purego.RegisterFunc(fptr, sym)
}

func (b *binder) err() error {
	if len(b.missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing symbols: %s", strings.Join(b.missing, ", "))
}

func registerLibc(lib uintptr) {
	purego.RegisterLibFunc(&c_malloc, lib, "malloc")
	purego.RegisterLibFunc(&c_free, lib, "free")
}

func registerLibvirt(lib uintptr) error {
	b := &binder{lib: lib}

	// Errors
	b.bind(&vir_get_last_error, "virGetLastError")
	b.bind(&vir_reset_last_error, "virResetLastError")
	b.bind(&vir_set_error_func, "virSetErrorFunc")

	// Connect
	b.bind(&vir_connect_open, "virConnectOpen")
	b.bind(&vir_connect_open_read_only, "virConnectOpenReadOnly")
	b.bind(&vir_connect_close, "virConnectClose")
	b.bind(&vir_connect_ref, "virConnectRef")
	b.bind(&vir_connect_get_type, "virConnectGetType")
	b.bind(&vir_connect_get_version, "virConnectGetVersion")
	b.bind(&vir_connect_get_lib_version, "virConnectGetLibVersion")
	b.bind(&vir_connect_get_hostname, "virConnectGetHostname")
	b.bind(&vir_connect_get_uri, "virConnectGetURI")
	b.bind(&vir_connect_is_alive, "virConnectIsAlive")
	b.bind(&vir_connect_list_all_domains, "virConnectListAllDomains")

	// Domain
	b.bind(&vir_domain_lookup_by_name, "virDomainLookupByName")
	b.bind(&vir_domain_lookup_by_uuid_string, "virDomainLookupByUUIDString")
	b.bind(&vir_domain_ref, "virDomainRef")
	b.bind(&vir_domain_free, "virDomainFree")
	b.bind(&vir_domain_get_name, "virDomainGetName")
	b.bind(&vir_domain_get_uuid_string, "virDomainGetUUIDString")
	b.bind(&vir_domain_get_id, "virDomainGetID")
	b.bind(&vir_domain_is_active, "virDomainIsActive")
	b.bind(&vir_domain_create, "virDomainCreate")
	b.bind(&vir_domain_destroy, "virDomainDestroy")
	b.bind(&vir_domain_suspend, "virDomainSuspend")
	b.bind(&vir_domain_resume, "virDomainResume")
	b.bind(&vir_domain_shutdown, "virDomainShutdown")
	b.bind(&vir_domain_get_metadata, "virDomainGetMetadata")
	b.bind(&vir_domain_open_console, "virDomainOpenConsole")
	b.bind(&vir_domain_abort_job, "virDomainAbortJob")

	// Domain typed parameters
	b.bind(&vir_domain_get_memory_parameters, "virDomainGetMemoryParameters")
	b.bind(&vir_domain_set_memory_parameters, "virDomainSetMemoryParameters")
	b.bind(&vir_domain_get_numa_parameters, "virDomainGetNumaParameters")
	b.bind(&vir_domain_set_numa_parameters, "virDomainSetNumaParameters")
	b.bind(&vir_domain_get_blkio_parameters, "virDomainGetBlkioParameters")
	b.bind(&vir_domain_set_blkio_parameters, "virDomainSetBlkioParameters")
	b.bind(&vir_domain_get_scheduler_type, "virDomainGetSchedulerType")
	b.bind(&vir_domain_get_scheduler_parameters_flags, "virDomainGetSchedulerParametersFlags")
	b.bind(&vir_domain_set_scheduler_parameters_flags, "virDomainSetSchedulerParametersFlags")
	b.bind(&vir_domain_get_job_stats, "virDomainGetJobStats")
	b.bind(&vir_domain_migrate_to_uri3, "virDomainMigrateToURI3")
	b.bind(&vir_typed_params_clear, "virTypedParamsClear")
	b.bind(&vir_typed_params_free, "virTypedParamsFree")

	// Stream
	b.bind(&vir_stream_new, "virStreamNew")
	b.bind(&vir_stream_ref, "virStreamRef")
	b.bind(&vir_stream_free, "virStreamFree")
	b.bind(&vir_stream_finish, "virStreamFinish")
	b.bind(&vir_stream_abort, "virStreamAbort")
	b.bind(&vir_stream_send, "virStreamSend")
	b.bind(&vir_stream_recv, "virStreamRecv")
	b.bind(&vir_stream_event_add_callback, "virStreamEventAddCallback")
	b.bind(&vir_stream_event_update_callback, "virStreamEventUpdateCallback")
	b.bind(&vir_stream_event_remove_callback, "virStreamEventRemoveCallback")

	// Event loop
	b.bind(&vir_event_register_default_impl, "virEventRegisterDefaultImpl")
	b.bind(&vir_event_run_default_impl, "virEventRunDefaultImpl")
	b.bind(&vir_event_add_handle, "virEventAddHandle")
	b.bind(&vir_event_update_handle, "virEventUpdateHandle")
	b.bind(&vir_event_remove_handle, "virEventRemoveHandle")
	b.bind(&vir_event_add_timeout, "virEventAddTimeout")
	b.bind(&vir_event_update_timeout, "virEventUpdateTimeout")
	b.bind(&vir_event_remove_timeout, "virEventRemoveTimeout")

	return b.err()
}
