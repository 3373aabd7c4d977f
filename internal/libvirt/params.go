package libvirt

import (
	"unsafe"

	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/typedparams"
	"github.com/tinyrange/virt/internal/virterror"
)

// MemoryParamUnlimited is VIR_DOMAIN_MEMORY_PARAM_UNLIMITED, in KiB.
const MemoryParamUnlimited uint64 = 9007199254740991

// DomainMemoryParameters are the memory tunables, in KiB.
type DomainMemoryParameters struct {
	HardLimitSet     bool
	HardLimit        uint64
	SoftLimitSet     bool
	SoftLimit        uint64
	MinGuaranteeSet  bool
	MinGuarantee     uint64
	SwapHardLimitSet bool
	SwapHardLimit    uint64
}

func (p *DomainMemoryParameters) fields() []typedparams.Field {
	return []typedparams.Field{
		typedparams.Uint64("hard_limit", &p.HardLimit, &p.HardLimitSet),
		typedparams.Uint64("soft_limit", &p.SoftLimit, &p.SoftLimitSet),
		typedparams.Uint64("min_guarantee", &p.MinGuarantee, &p.MinGuaranteeSet),
		typedparams.Uint64("swap_hard_limit", &p.SwapHardLimit, &p.SwapHardLimitSet),
	}
}

// DomainNumaTuneMemMode is virDomainNumatuneMemMode.
type DomainNumaTuneMemMode int32

const (
	NumaTuneMemStrict      DomainNumaTuneMemMode = 0
	NumaTuneMemPreferred   DomainNumaTuneMemMode = 1
	NumaTuneMemInterleave  DomainNumaTuneMemMode = 2
	NumaTuneMemRestrictive DomainNumaTuneMemMode = 3
)

type DomainNumaParameters struct {
	NodesetSet bool
	Nodeset    string
	ModeSet    bool
	Mode       DomainNumaTuneMemMode
}

func (p *DomainNumaParameters) fields() []typedparams.Field {
	return []typedparams.Field{
		typedparams.String("numa_nodeset", &p.Nodeset, &p.NodesetSet),
		typedparams.Int32("numa_mode", (*int32)(&p.Mode), &p.ModeSet),
	}
}

// DomainSchedulerParameters covers the cgroup CPU controller and the
// weight based schedulers.
type DomainSchedulerParameters struct {
	Type              string
	CPUSharesSet      bool
	CPUShares         uint64
	VcpuPeriodSet     bool
	VcpuPeriod        uint64
	VcpuQuotaSet      bool
	VcpuQuota         int64
	EmulatorPeriodSet bool
	EmulatorPeriod    uint64
	EmulatorQuotaSet  bool
	EmulatorQuota     int64
	WeightSet         bool
	Weight            uint32
	CapSet            bool
	Cap               uint32
}

func (p *DomainSchedulerParameters) fields() []typedparams.Field {
	return []typedparams.Field{
		typedparams.Uint64("cpu_shares", &p.CPUShares, &p.CPUSharesSet),
		typedparams.Uint64("vcpu_period", &p.VcpuPeriod, &p.VcpuPeriodSet),
		typedparams.Int64("vcpu_quota", &p.VcpuQuota, &p.VcpuQuotaSet),
		typedparams.Uint64("emulator_period", &p.EmulatorPeriod, &p.EmulatorPeriodSet),
		typedparams.Int64("emulator_quota", &p.EmulatorQuota, &p.EmulatorQuotaSet),
		typedparams.Uint32("weight", &p.Weight, &p.WeightSet),
		typedparams.Uint32("cap", &p.Cap, &p.CapSet),
	}
}

// DomainBlkioParameters. The device_* values are comma separated
// path,value lists as libvirt formats them.
type DomainBlkioParameters struct {
	WeightSet           bool
	Weight              uint32
	DeviceWeightSet     bool
	DeviceWeight        string
	DeviceReadIopsSet   bool
	DeviceReadIops      string
	DeviceWriteIopsSet  bool
	DeviceWriteIops     string
	DeviceReadBytesSet  bool
	DeviceReadBytes     string
	DeviceWriteBytesSet bool
	DeviceWriteBytes    string
}

func (p *DomainBlkioParameters) fields() []typedparams.Field {
	return []typedparams.Field{
		typedparams.Uint32("weight", &p.Weight, &p.WeightSet),
		typedparams.String("device_weight", &p.DeviceWeight, &p.DeviceWeightSet),
		typedparams.String("device_read_iops_sec", &p.DeviceReadIops, &p.DeviceReadIopsSet),
		typedparams.String("device_write_iops_sec", &p.DeviceWriteIops, &p.DeviceWriteIopsSet),
		typedparams.String("device_read_bytes_sec", &p.DeviceReadBytes, &p.DeviceReadBytesSet),
		typedparams.String("device_write_bytes_sec", &p.DeviceWriteBytes, &p.DeviceWriteBytesSet),
	}
}

// DomainJobType is virDomainJobType.
type DomainJobType int32

const (
	JobNone      DomainJobType = 0
	JobBounded   DomainJobType = 1
	JobUnbounded DomainJobType = 2
	JobCompleted DomainJobType = 3
	JobFailed    DomainJobType = 4
	JobCancelled DomainJobType = 5
)

func (t DomainJobType) String() string {
	switch t {
	case JobNone:
		return "none"
	case JobBounded:
		return "bounded"
	case JobUnbounded:
		return "unbounded"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	}
	return "unknown"
}

// DomainJobInfo is the result of GetJobStats. Times are milliseconds and
// sizes are bytes.
type DomainJobInfo struct {
	Type             DomainJobType
	TimeElapsedSet   bool
	TimeElapsed      uint64
	TimeRemainingSet bool
	TimeRemaining    uint64
	DataTotalSet     bool
	DataTotal        uint64
	DataProcessedSet bool
	DataProcessed    uint64
	DataRemainingSet bool
	DataRemaining    uint64
	MemTotalSet      bool
	MemTotal         uint64
	MemProcessedSet  bool
	MemProcessed     uint64
	MemRemainingSet  bool
	MemRemaining     uint64
	MemBpsSet        bool
	MemBps           uint64
	MemDirtyRateSet  bool
	MemDirtyRate     uint64
	MemIterationSet  bool
	MemIteration     uint64
	DiskTotalSet     bool
	DiskTotal        uint64
	DiskProcessedSet bool
	DiskProcessed    uint64
	DiskRemainingSet bool
	DiskRemaining    uint64
	DiskBpsSet       bool
	DiskBps          uint64
	DowntimeSet      bool
	Downtime         uint64
	SetupTimeSet     bool
	SetupTime        uint64
	OperationSet     bool
	Operation        int32
	SuccessSet       bool
	Success          bool
}

func (p *DomainJobInfo) fields() []typedparams.Field {
	return []typedparams.Field{
		typedparams.Uint64("time_elapsed", &p.TimeElapsed, &p.TimeElapsedSet),
		typedparams.Uint64("time_remaining", &p.TimeRemaining, &p.TimeRemainingSet),
		typedparams.Uint64("data_total", &p.DataTotal, &p.DataTotalSet),
		typedparams.Uint64("data_processed", &p.DataProcessed, &p.DataProcessedSet),
		typedparams.Uint64("data_remaining", &p.DataRemaining, &p.DataRemainingSet),
		typedparams.Uint64("memory_total", &p.MemTotal, &p.MemTotalSet),
		typedparams.Uint64("memory_processed", &p.MemProcessed, &p.MemProcessedSet),
		typedparams.Uint64("memory_remaining", &p.MemRemaining, &p.MemRemainingSet),
		typedparams.Uint64("memory_bps", &p.MemBps, &p.MemBpsSet),
		typedparams.Uint64("memory_dirty_rate", &p.MemDirtyRate, &p.MemDirtyRateSet),
		typedparams.Uint64("memory_iteration", &p.MemIteration, &p.MemIterationSet),
		typedparams.Uint64("disk_total", &p.DiskTotal, &p.DiskTotalSet),
		typedparams.Uint64("disk_processed", &p.DiskProcessed, &p.DiskProcessedSet),
		typedparams.Uint64("disk_remaining", &p.DiskRemaining, &p.DiskRemainingSet),
		typedparams.Uint64("disk_bps", &p.DiskBps, &p.DiskBpsSet),
		typedparams.Uint64("downtime", &p.Downtime, &p.DowntimeSet),
		typedparams.Uint64("setup_time", &p.SetupTime, &p.SetupTimeSet),
		typedparams.Int32("operation", &p.Operation, &p.OperationSet),
		typedparams.Bool("success", &p.Success, &p.SuccessSet),
	}
}

// DomainMigrateParameters are only ever sent.
type DomainMigrateParameters struct {
	URISet                   bool
	URI                      string
	DestNameSet              bool
	DestName                 string
	DestXMLSet               bool
	DestXML                  string
	PersistXMLSet            bool
	PersistXML               string
	GraphicsURISet           bool
	GraphicsURI              string
	ListenAddressSet         bool
	ListenAddress            string
	BandwidthSet             bool
	Bandwidth                uint64
	AutoConvergeInitialSet   bool
	AutoConvergeInitial      int32
	AutoConvergeIncrementSet bool
	AutoConvergeIncrement    int32
	CompressionMTLevelSet    bool
	CompressionMTLevel       int32
	CompressionMTThreadsSet  bool
	CompressionMTThreads     int32
}

func (p *DomainMigrateParameters) fields() []typedparams.Field {
	return []typedparams.Field{
		typedparams.String("migrate_uri", &p.URI, &p.URISet),
		typedparams.String("destination_name", &p.DestName, &p.DestNameSet),
		typedparams.String("destination_xml", &p.DestXML, &p.DestXMLSet),
		typedparams.String("persistent_xml", &p.PersistXML, &p.PersistXMLSet),
		typedparams.String("graphics_uri", &p.GraphicsURI, &p.GraphicsURISet),
		typedparams.String("listen_address", &p.ListenAddress, &p.ListenAddressSet),
		typedparams.Uint64("bandwidth", &p.Bandwidth, &p.BandwidthSet),
		typedparams.Int32("auto_converge.initial", &p.AutoConvergeInitial, &p.AutoConvergeInitialSet),
		typedparams.Int32("auto_converge.increment", &p.AutoConvergeIncrement, &p.AutoConvergeIncrementSet),
		typedparams.Int32("compression.mt.level", &p.CompressionMTLevel, &p.CompressionMTLevelSet),
		typedparams.Int32("compression.mt.threads", &p.CompressionMTThreads, &p.CompressionMTThreadsSet),
	}
}

// getParams runs the usual two step query: once with no array to learn the
// count (unless the caller already knows it), then again to fill the array.
// String values libvirt allocated are released before returning.
func getParams(n int32, call func(params unsafe.Pointer, nparams *int32) int32, fields []typedparams.Field) error {
	if n == 0 {
		if err := virterror.Call(func() bool { return call(nil, &n) == 0 }); err != nil {
			return err
		}
	}
	if n <= 0 {
		return nil
	}
	params := make([]typedparams.Param, n)
	if err := virterror.Call(func() bool { return call(typedparams.Pointer(params), &n) == 0 }); err != nil {
		return err
	}
	defer bindings.VirTypedParamsClear(typedparams.Pointer(params), n)
	typedparams.Decode(params[:n], fields)
	return nil
}

// setParams encodes the present fields into C memory for the duration of
// call.
func setParams(fields []typedparams.Field, call func(params unsafe.Pointer, nparams int32) int32) error {
	alloc := bindings.CAllocator{}
	params := typedparams.Encode(alloc, fields)
	defer typedparams.Clear(alloc, params)
	return virterror.Call(func() bool { return call(typedparams.Pointer(params), int32(len(params))) == 0 })
}
