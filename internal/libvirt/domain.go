package libvirt

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/typedparams"
	"github.com/tinyrange/virt/internal/virterror"
)

// DomainModificationImpact selects live state, persistent config or both.
type DomainModificationImpact uint32

const (
	DomainAffectCurrent DomainModificationImpact = 0
	DomainAffectLive    DomainModificationImpact = 1 << 0
	DomainAffectConfig  DomainModificationImpact = 1 << 1
)

// DomainMetadataType is virDomainMetadataType.
type DomainMetadataType int32

const (
	DomainMetadataDescription DomainMetadataType = 0
	DomainMetadataTitle       DomainMetadataType = 1
	DomainMetadataElement     DomainMetadataType = 2
)

// DomainMigrateFlags is a subset of virDomainMigrateFlags.
type DomainMigrateFlags uint32

const (
	MigrateLive           DomainMigrateFlags = 1 << 0
	MigratePeer2Peer      DomainMigrateFlags = 1 << 1
	MigrateTunnelled      DomainMigrateFlags = 1 << 2
	MigratePersistDest    DomainMigrateFlags = 1 << 3
	MigrateUndefineSource DomainMigrateFlags = 1 << 4
	MigratePaused         DomainMigrateFlags = 1 << 5
	MigrateNonSharedDisk  DomainMigrateFlags = 1 << 6
	MigrateCompressed     DomainMigrateFlags = 1 << 11
	MigrateAutoConverge   DomainMigrateFlags = 1 << 13
)

// DomainConsoleFlags is virDomainConsoleFlags.
type DomainConsoleFlags uint32

const (
	ConsoleForce DomainConsoleFlags = 1 << 0
	ConsoleSafe  DomainConsoleFlags = 1 << 1
)

// Domain is a virDomainPtr.
type Domain struct {
	ptr uintptr
}

// Free drops this reference.
func (d *Domain) Free() error {
	if d.ptr == 0 {
		return nil
	}
	err := virterror.Call(func() bool { return bindings.VirDomainFree(d.ptr) == 0 })
	d.ptr = 0
	if err != nil {
		return fmt.Errorf("free domain: %w", err)
	}
	return nil
}

func (d *Domain) Clone() (*Domain, error) {
	if err := virterror.Call(func() bool { return bindings.VirDomainRef(d.ptr) == 0 }); err != nil {
		return nil, fmt.Errorf("ref domain: %w", err)
	}
	return &Domain{ptr: d.ptr}, nil
}

func (d *Domain) Name() (string, error) {
	var p uintptr
	if err := virterror.Call(func() bool { p = bindings.VirDomainGetName(d.ptr); return p != 0 }); err != nil {
		return "", fmt.Errorf("domain name: %w", err)
	}
	return bindings.GoString(p), nil
}

func (d *Domain) UUID() (uuid.UUID, error) {
	var buf [bindings.UUIDStringBuflen]byte
	if err := virterror.Call(func() bool { return bindings.VirDomainGetUUIDString(d.ptr, &buf) == 0 }); err != nil {
		return uuid.Nil, fmt.Errorf("domain uuid: %w", err)
	}
	u, err := uuid.ParseBytes(buf[:bindings.UUIDStringBuflen-1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("domain uuid: %w", err)
	}
	return u, nil
}

// ID returns the hypervisor id of a running domain.
func (d *Domain) ID() (uint, error) {
	var id uint32
	if err := virterror.Call(func() bool { id = bindings.VirDomainGetID(d.ptr); return id != ^uint32(0) }); err != nil {
		return 0, fmt.Errorf("domain id: %w", err)
	}
	return uint(id), nil
}

func (d *Domain) IsActive() (bool, error) {
	var r int32
	if err := virterror.Call(func() bool { r = bindings.VirDomainIsActive(d.ptr); return r >= 0 }); err != nil {
		return false, fmt.Errorf("domain is active: %w", err)
	}
	return r == 1, nil
}

func (d *Domain) simple(what string, fn func(uintptr) int32) error {
	if err := virterror.Call(func() bool { return fn(d.ptr) == 0 }); err != nil {
		return fmt.Errorf("%s domain: %w", what, err)
	}
	return nil
}

func (d *Domain) Create() error   { return d.simple("create", bindings.VirDomainCreate) }
func (d *Domain) Destroy() error  { return d.simple("destroy", bindings.VirDomainDestroy) }
func (d *Domain) Suspend() error  { return d.simple("suspend", bindings.VirDomainSuspend) }
func (d *Domain) Resume() error   { return d.simple("resume", bindings.VirDomainResume) }
func (d *Domain) Shutdown() error { return d.simple("shutdown", bindings.VirDomainShutdown) }
func (d *Domain) AbortJob() error { return d.simple("abort job on", bindings.VirDomainAbortJob) }

func (d *Domain) GetMemoryParameters(flags DomainModificationImpact) (*DomainMemoryParameters, error) {
	params := &DomainMemoryParameters{}
	err := getParams(0, func(p unsafe.Pointer, n *int32) int32 {
		return bindings.VirDomainGetMemoryParameters(d.ptr, p, n, uint32(flags))
	}, params.fields())
	if err != nil {
		return nil, fmt.Errorf("get memory parameters: %w", err)
	}
	return params, nil
}

func (d *Domain) SetMemoryParameters(params *DomainMemoryParameters, flags DomainModificationImpact) error {
	err := setParams(params.fields(), func(p unsafe.Pointer, n int32) int32 {
		return bindings.VirDomainSetMemoryParameters(d.ptr, p, n, uint32(flags))
	})
	if err != nil {
		return fmt.Errorf("set memory parameters: %w", err)
	}
	return nil
}

func (d *Domain) GetNumaParameters(flags DomainModificationImpact) (*DomainNumaParameters, error) {
	params := &DomainNumaParameters{}
	err := getParams(0, func(p unsafe.Pointer, n *int32) int32 {
		return bindings.VirDomainGetNumaParameters(d.ptr, p, n, uint32(flags))
	}, params.fields())
	if err != nil {
		return nil, fmt.Errorf("get numa parameters: %w", err)
	}
	return params, nil
}

func (d *Domain) SetNumaParameters(params *DomainNumaParameters, flags DomainModificationImpact) error {
	err := setParams(params.fields(), func(p unsafe.Pointer, n int32) int32 {
		return bindings.VirDomainSetNumaParameters(d.ptr, p, n, uint32(flags))
	})
	if err != nil {
		return fmt.Errorf("set numa parameters: %w", err)
	}
	return nil
}

func (d *Domain) GetBlkioParameters(flags DomainModificationImpact) (*DomainBlkioParameters, error) {
	params := &DomainBlkioParameters{}
	err := getParams(0, func(p unsafe.Pointer, n *int32) int32 {
		return bindings.VirDomainGetBlkioParameters(d.ptr, p, n, uint32(flags))
	}, params.fields())
	if err != nil {
		return nil, fmt.Errorf("get blkio parameters: %w", err)
	}
	return params, nil
}

func (d *Domain) SetBlkioParameters(params *DomainBlkioParameters, flags DomainModificationImpact) error {
	err := setParams(params.fields(), func(p unsafe.Pointer, n int32) int32 {
		return bindings.VirDomainSetBlkioParameters(d.ptr, p, n, uint32(flags))
	})
	if err != nil {
		return fmt.Errorf("set blkio parameters: %w", err)
	}
	return nil
}

// GetSchedulerParameters also reports the scheduler name in Type.
func (d *Domain) GetSchedulerParameters(flags DomainModificationImpact) (*DomainSchedulerParameters, error) {
	var n int32
	var typ uintptr
	if err := virterror.Call(func() bool { typ = bindings.VirDomainGetSchedulerType(d.ptr, &n); return typ != 0 }); err != nil {
		return nil, fmt.Errorf("get scheduler type: %w", err)
	}
	params := &DomainSchedulerParameters{Type: bindings.GoStringFree(typ)}
	if n == 0 {
		return params, nil
	}
	err := getParams(n, func(p unsafe.Pointer, n *int32) int32 {
		return bindings.VirDomainGetSchedulerParametersFlags(d.ptr, p, n, uint32(flags))
	}, params.fields())
	if err != nil {
		return nil, fmt.Errorf("get scheduler parameters: %w", err)
	}
	return params, nil
}

func (d *Domain) SetSchedulerParameters(params *DomainSchedulerParameters, flags DomainModificationImpact) error {
	err := setParams(params.fields(), func(p unsafe.Pointer, n int32) int32 {
		return bindings.VirDomainSetSchedulerParametersFlags(d.ptr, p, n, uint32(flags))
	})
	if err != nil {
		return fmt.Errorf("set scheduler parameters: %w", err)
	}
	return nil
}

// GetJobStats reports the active job, or the last completed one when flags
// asks for it (VIR_DOMAIN_JOB_STATS_COMPLETED = 1).
func (d *Domain) GetJobStats(flags uint32) (*DomainJobInfo, error) {
	var typ, n int32
	var arr uintptr
	err := virterror.Call(func() bool {
		return bindings.VirDomainGetJobStats(d.ptr, &typ, &arr, &n, flags) == 0
	})
	if err != nil {
		return nil, fmt.Errorf("get job stats: %w", err)
	}
	defer bindings.VirTypedParamsFree(arr, n)

	info := &DomainJobInfo{Type: DomainJobType(typ)}
	typedparams.Decode(typedparams.View(arr, int(n)), info.fields())
	return info, nil
}

// MigrateToURI3 migrates to the connection at dconnuri. With peer to peer
// migration dconnuri names the destination libvirtd; otherwise the
// destination comes from params.
func (d *Domain) MigrateToURI3(dconnuri string, params *DomainMigrateParameters, flags DomainMigrateFlags) error {
	if params == nil {
		params = &DomainMigrateParameters{}
	}
	uri := bindings.CStringPtr(dconnuri)
	err := setParams(params.fields(), func(p unsafe.Pointer, n int32) int32 {
		return bindings.VirDomainMigrateToURI3(d.ptr, uri, p, uint32(n), uint32(flags))
	})
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Metadata returns the description, title or, for DomainMetadataElement,
// the XML element stored under namespace uri. Missing metadata matches
// virterror.ErrNoDomainMetadata.
func (d *Domain) Metadata(typ DomainMetadataType, uri string, flags DomainModificationImpact) (string, error) {
	var p uintptr
	ns := bindings.CStringPtr(uri)
	if err := virterror.Call(func() bool { p = bindings.VirDomainGetMetadata(d.ptr, int32(typ), ns, uint32(flags)); return p != 0 }); err != nil {
		return "", fmt.Errorf("domain metadata: %w", err)
	}
	return bindings.GoStringFree(p), nil
}

// OpenConsole attaches st to the domain's console devname, or the first
// console when devname is empty.
func (d *Domain) OpenConsole(devname string, st *Stream, flags DomainConsoleFlags) error {
	dev := bindings.CStringPtr(devname)
	if err := virterror.Call(func() bool { return bindings.VirDomainOpenConsole(d.ptr, dev, st.ptr, uint32(flags)) == 0 }); err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	return nil
}
