package bindings

import "unsafe"

// This file exposes the bound symbols as regular Go functions.
// All functions call MustLoad() before invoking the underlying symbol.

// ---- Errors ----

func VirGetLastError() *Error {
	MustLoad()
	return (*Error)(vir_get_last_error())
}

func VirResetLastError() {
	MustLoad()
	vir_reset_last_error()
}

// ---- Connect ----

func VirConnectOpen(name string) uintptr {
	MustLoad()
	return vir_connect_open(name)
}

func VirConnectOpenReadOnly(name string) uintptr {
	MustLoad()
	return vir_connect_open_read_only(name)
}

func VirConnectClose(conn uintptr) int32 {
	MustLoad()
	return vir_connect_close(conn)
}

func VirConnectRef(conn uintptr) int32 {
	MustLoad()
	return vir_connect_ref(conn)
}

// VirConnectGetType returns a static string owned by libvirt.
func VirConnectGetType(conn uintptr) uintptr {
	MustLoad()
	return vir_connect_get_type(conn)
}

func VirConnectGetVersion(conn uintptr, hvVer *uint64) int32 {
	MustLoad()
	return vir_connect_get_version(conn, hvVer)
}

func VirConnectGetLibVersion(conn uintptr, libVer *uint64) int32 {
	MustLoad()
	return vir_connect_get_lib_version(conn, libVer)
}

// VirConnectGetHostname returns a string the caller must free.
func VirConnectGetHostname(conn uintptr) uintptr {
	MustLoad()
	return vir_connect_get_hostname(conn)
}

// VirConnectGetURI returns a string the caller must free.
func VirConnectGetURI(conn uintptr) uintptr {
	MustLoad()
	return vir_connect_get_uri(conn)
}

func VirConnectIsAlive(conn uintptr) int32 {
	MustLoad()
	return vir_connect_is_alive(conn)
}

// VirConnectListAllDomains stores a malloc'd array of domain pointers in
// *domains. Each element holds a reference and the array itself must be freed.
func VirConnectListAllDomains(conn uintptr, domains *uintptr, flags uint32) int32 {
	MustLoad()
	return vir_connect_list_all_domains(conn, domains, flags)
}

// ---- Domain ----

func VirDomainLookupByName(conn uintptr, name string) uintptr {
	MustLoad()
	return vir_domain_lookup_by_name(conn, name)
}

func VirDomainLookupByUUIDString(conn uintptr, uuid string) uintptr {
	MustLoad()
	return vir_domain_lookup_by_uuid_string(conn, uuid)
}

func VirDomainRef(dom uintptr) int32 {
	MustLoad()
	return vir_domain_ref(dom)
}

func VirDomainFree(dom uintptr) int32 {
	MustLoad()
	return vir_domain_free(dom)
}

// VirDomainGetName returns a string owned by the domain object.
func VirDomainGetName(dom uintptr) uintptr {
	MustLoad()
	return vir_domain_get_name(dom)
}

func VirDomainGetUUIDString(dom uintptr, buf *[UUIDStringBuflen]byte) int32 {
	MustLoad()
	return vir_domain_get_uuid_string(dom, &buf[0])
}

func VirDomainGetID(dom uintptr) uint32 {
	MustLoad()
	return vir_domain_get_id(dom)
}

func VirDomainIsActive(dom uintptr) int32 {
	MustLoad()
	return vir_domain_is_active(dom)
}

func VirDomainCreate(dom uintptr) int32 {
	MustLoad()
	return vir_domain_create(dom)
}

func VirDomainDestroy(dom uintptr) int32 {
	MustLoad()
	return vir_domain_destroy(dom)
}

func VirDomainSuspend(dom uintptr) int32 {
	MustLoad()
	return vir_domain_suspend(dom)
}

func VirDomainResume(dom uintptr) int32 {
	MustLoad()
	return vir_domain_resume(dom)
}

func VirDomainShutdown(dom uintptr) int32 {
	MustLoad()
	return vir_domain_shutdown(dom)
}

// VirDomainGetMetadata returns a string the caller must free.
func VirDomainGetMetadata(dom uintptr, typ int32, uri *byte, flags uint32) uintptr {
	MustLoad()
	return vir_domain_get_metadata(dom, typ, uri, flags)
}

func VirDomainOpenConsole(dom uintptr, devName *byte, st uintptr, flags uint32) int32 {
	MustLoad()
	return vir_domain_open_console(dom, devName, st, flags)
}

func VirDomainAbortJob(dom uintptr) int32 {
	MustLoad()
	return vir_domain_abort_job(dom)
}

// ---- Domain typed parameters ----

func VirDomainGetMemoryParameters(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_get_memory_parameters(dom, params, nparams, flags)
}

func VirDomainSetMemoryParameters(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_set_memory_parameters(dom, params, nparams, flags)
}

func VirDomainGetNumaParameters(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_get_numa_parameters(dom, params, nparams, flags)
}

func VirDomainSetNumaParameters(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_set_numa_parameters(dom, params, nparams, flags)
}

func VirDomainGetBlkioParameters(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_get_blkio_parameters(dom, params, nparams, flags)
}

func VirDomainSetBlkioParameters(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_set_blkio_parameters(dom, params, nparams, flags)
}

// VirDomainGetSchedulerType returns a string the caller must free.
func VirDomainGetSchedulerType(dom uintptr, nparams *int32) uintptr {
	MustLoad()
	return vir_domain_get_scheduler_type(dom, nparams)
}

func VirDomainGetSchedulerParametersFlags(dom uintptr, params unsafe.Pointer, nparams *int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_get_scheduler_parameters_flags(dom, params, nparams, flags)
}

func VirDomainSetSchedulerParametersFlags(dom uintptr, params unsafe.Pointer, nparams int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_set_scheduler_parameters_flags(dom, params, nparams, flags)
}

// VirDomainGetJobStats stores a libvirt-allocated array in *params which
// must be released with VirTypedParamsFree.
func VirDomainGetJobStats(dom uintptr, typ *int32, params *uintptr, nparams *int32, flags uint32) int32 {
	MustLoad()
	return vir_domain_get_job_stats(dom, typ, params, nparams, flags)
}

func VirDomainMigrateToURI3(dom uintptr, dconnuri *byte, params unsafe.Pointer, nparams uint32, flags uint32) int32 {
	MustLoad()
	return vir_domain_migrate_to_uri3(dom, dconnuri, params, nparams, flags)
}

// VirTypedParamsClear frees the string values of an array libvirt filled in.
func VirTypedParamsClear(params unsafe.Pointer, nparams int32) {
	MustLoad()
	vir_typed_params_clear(params, nparams)
}

// VirTypedParamsFree frees the string values and the array itself.
func VirTypedParamsFree(params uintptr, nparams int32) {
	MustLoad()
	vir_typed_params_free(params, nparams)
}

// ---- Stream ----

func VirStreamNew(conn uintptr, flags uint32) uintptr {
	MustLoad()
	return vir_stream_new(conn, flags)
}

func VirStreamRef(st uintptr) int32 {
	MustLoad()
	return vir_stream_ref(st)
}

func VirStreamFree(st uintptr) int32 {
	MustLoad()
	return vir_stream_free(st)
}

func VirStreamFinish(st uintptr) int32 {
	MustLoad()
	return vir_stream_finish(st)
}

func VirStreamAbort(st uintptr) int32 {
	MustLoad()
	return vir_stream_abort(st)
}

func VirStreamSend(st uintptr, data []byte) int32 {
	MustLoad()
	if len(data) == 0 {
		return vir_stream_send(st, nil, 0)
	}
	return vir_stream_send(st, &data[0], uintptr(len(data)))
}

func VirStreamRecv(st uintptr, data []byte) int32 {
	MustLoad()
	if len(data) == 0 {
		return vir_stream_recv(st, nil, 0)
	}
	return vir_stream_recv(st, &data[0], uintptr(len(data)))
}

func VirStreamEventAddCallback(st uintptr, events int32, cb uintptr, opaque uintptr, ff uintptr) int32 {
	MustLoad()
	return vir_stream_event_add_callback(st, events, cb, opaque, ff)
}

func VirStreamEventUpdateCallback(st uintptr, events int32) int32 {
	MustLoad()
	return vir_stream_event_update_callback(st, events)
}

func VirStreamEventRemoveCallback(st uintptr) int32 {
	MustLoad()
	return vir_stream_event_remove_callback(st)
}

// ---- Event loop ----

func VirEventRegisterDefaultImpl() int32 {
	MustLoad()
	return vir_event_register_default_impl()
}

func VirEventRunDefaultImpl() int32 {
	MustLoad()
	return vir_event_run_default_impl()
}

func VirEventAddHandle(fd int32, events int32, cb uintptr, opaque uintptr, ff uintptr) int32 {
	MustLoad()
	return vir_event_add_handle(fd, events, cb, opaque, ff)
}

func VirEventUpdateHandle(watch int32, events int32) {
	MustLoad()
	vir_event_update_handle(watch, events)
}

func VirEventRemoveHandle(watch int32) int32 {
	MustLoad()
	return vir_event_remove_handle(watch)
}

func VirEventAddTimeout(timeout int32, cb uintptr, opaque uintptr, ff uintptr) int32 {
	MustLoad()
	return vir_event_add_timeout(timeout, cb, opaque, ff)
}

func VirEventUpdateTimeout(timer int32, timeout int32) {
	MustLoad()
	vir_event_update_timeout(timer, timeout)
}

func VirEventRemoveTimeout(timer int32) int32 {
	MustLoad()
	return vir_event_remove_timeout(timer)
}
