package libvirt

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/tinyrange/virt/internal/typedparams"
)

type goAllocator struct{ live map[uintptr][]byte }

func (a *goAllocator) CString(s string) uintptr {
	if a.live == nil {
		a.live = make(map[uintptr][]byte)
	}
	buf := append([]byte(s), 0)
	p := uintptr(unsafe.Pointer(&buf[0]))
	a.live[p] = buf
	return p
}

func (a *goAllocator) Free(p uintptr) { delete(a.live, p) }

func names(params []typedparams.Param) []string {
	var out []string
	for i := range params {
		out = append(out, params[i].Name())
	}
	return out
}

func TestMemoryParametersSoftLimitOnly(t *testing.T) {
	in := DomainMemoryParameters{SoftLimitSet: true, SoftLimit: 87539319}
	params := typedparams.Encode(&goAllocator{}, in.fields())

	if diff := cmp.Diff([]string{"soft_limit"}, names(params)); diff != "" {
		t.Fatalf("Encode() names (-want +got):\n%s", diff)
	}

	var out DomainMemoryParameters
	typedparams.Decode(params, out.fields())
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestSchedulerParametersDecode(t *testing.T) {
	params := []typedparams.Param{
		typedparams.NewUint64("cpu_shares", 1024),
		typedparams.NewUint64("vcpu_period", 100000),
	}
	var got DomainSchedulerParameters
	typedparams.Decode(params, got.fields())

	want := DomainSchedulerParameters{CPUSharesSet: true, CPUShares: 1024, VcpuPeriodSet: true, VcpuPeriod: 100000}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode() (-want +got):\n%s", diff)
	}
}

func TestNumaParametersRoundTrip(t *testing.T) {
	alloc := &goAllocator{}
	in := DomainNumaParameters{NodesetSet: true, Nodeset: "0-1", ModeSet: true, Mode: NumaTuneMemInterleave}
	params := typedparams.Encode(alloc, in.fields())

	var out DomainNumaParameters
	typedparams.Decode(params, out.fields())
	typedparams.Clear(alloc, params)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if len(alloc.live) != 0 {
		t.Fatalf("Clear() left %d strings", len(alloc.live))
	}
}

func TestBlkioParametersRoundTrip(t *testing.T) {
	alloc := &goAllocator{}
	in := DomainBlkioParameters{
		WeightSet: true, Weight: 500,
		DeviceReadIopsSet: true, DeviceReadIops: "/dev/sda,1000",
	}
	params := typedparams.Encode(alloc, in.fields())
	defer typedparams.Clear(alloc, params)

	var out DomainBlkioParameters
	typedparams.Decode(params, out.fields())
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestMigrateParametersNames(t *testing.T) {
	in := DomainMigrateParameters{
		URISet: true, URI: "tcp://dst",
		BandwidthSet: true, Bandwidth: 100,
		AutoConvergeInitialSet: true, AutoConvergeInitial: 20,
		CompressionMTLevelSet: true, CompressionMTLevel: 1,
	}
	alloc := &goAllocator{}
	params := typedparams.Encode(alloc, in.fields())
	defer typedparams.Clear(alloc, params)

	want := []string{"migrate_uri", "bandwidth", "auto_converge.initial", "compression.mt.level"}
	if diff := cmp.Diff(want, names(params)); diff != "" {
		t.Fatalf("Encode() names (-want +got):\n%s", diff)
	}
	if got := params[0].StringValue(); got != "tcp://dst" {
		t.Fatalf("migrate_uri = %q", got)
	}
}

func TestJobInfoDecode(t *testing.T) {
	params := []typedparams.Param{
		typedparams.NewUint64("time_elapsed", 1500),
		typedparams.NewUint64("memory_total", 1<<30),
		typedparams.NewUint64("memory_processed", 1<<29),
		typedparams.NewInt32("operation", 2),
		typedparams.NewBool("success", true),
		typedparams.NewUint64("some_future_field", 7),
	}
	got := DomainJobInfo{Type: JobCompleted}
	typedparams.Decode(params, got.fields())

	want := DomainJobInfo{
		Type:           JobCompleted,
		TimeElapsedSet: true, TimeElapsed: 1500,
		MemTotalSet: true, MemTotal: 1 << 30,
		MemProcessedSet: true, MemProcessed: 1 << 29,
		OperationSet: true, Operation: 2,
		SuccessSet: true, Success: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode() (-want +got):\n%s", diff)
	}
	if JobCompleted.String() != "completed" {
		t.Fatalf("String() = %q", JobCompleted.String())
	}
}
