package typedparams

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

// goAllocator keeps string copies in Go memory so the codec can be tested
// without libc.
type goAllocator struct {
	live map[uintptr][]byte
}

func newGoAllocator() *goAllocator {
	return &goAllocator{live: make(map[uintptr][]byte)}
}

func (a *goAllocator) CString(s string) uintptr {
	buf := append([]byte(s), 0)
	p := uintptr(unsafe.Pointer(&buf[0]))
	a.live[p] = buf
	return p
}

func (a *goAllocator) Free(p uintptr) {
	if _, ok := a.live[p]; !ok {
		panic("free of unknown pointer")
	}
	delete(a.live, p)
}

type memory struct {
	HardLimit        uint64
	HardLimitSet     bool
	SoftLimit        uint64
	SoftLimitSet     bool
	MinGuarantee     uint64
	MinGuaranteeSet  bool
	SwapHardLimit    uint64
	SwapHardLimitSet bool
}

func (m *memory) fields() []Field {
	return []Field{
		Uint64("hard_limit", &m.HardLimit, &m.HardLimitSet),
		Uint64("soft_limit", &m.SoftLimit, &m.SoftLimitSet),
		Uint64("min_guarantee", &m.MinGuarantee, &m.MinGuaranteeSet),
		Uint64("swap_hard_limit", &m.SwapHardLimit, &m.SwapHardLimitSet),
	}
}

type sched struct {
	CPUShares         uint64
	CPUSharesSet      bool
	VcpuPeriod        uint64
	VcpuPeriodSet     bool
	VcpuQuota         int64
	VcpuQuotaSet      bool
	EmulatorPeriod    uint64
	EmulatorPeriodSet bool
	EmulatorQuota     int64
	EmulatorQuotaSet  bool
}

func (s *sched) fields() []Field {
	return []Field{
		Uint64("cpu_shares", &s.CPUShares, &s.CPUSharesSet),
		Uint64("vcpu_period", &s.VcpuPeriod, &s.VcpuPeriodSet),
		Int64("vcpu_quota", &s.VcpuQuota, &s.VcpuQuotaSet),
		Uint64("emulator_period", &s.EmulatorPeriod, &s.EmulatorPeriodSet),
		Int64("emulator_quota", &s.EmulatorQuota, &s.EmulatorQuotaSet),
	}
}

type mixed struct {
	I    int32
	ISet bool
	U    uint32
	USet bool
	L    int64
	LSet bool
	D    float64
	DSet bool
	B    bool
	BSet bool
	S    string
	SSet bool
}

func (m *mixed) fields() []Field {
	return []Field{
		Int32("i", &m.I, &m.ISet),
		Uint32("u", &m.U, &m.USet),
		Int64("l", &m.L, &m.LSet),
		Float64("d", &m.D, &m.DSet),
		Bool("b", &m.B, &m.BSet),
		String("s", &m.S, &m.SSet),
	}
}

func TestParamLayout(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("layout check assumes LP64")
	}
	var p Param
	if got := unsafe.Sizeof(p); got != 96 {
		t.Fatalf("Sizeof(Param) = %d, want 96", got)
	}
	if got := unsafe.Offsetof(p.Type); got != 80 {
		t.Fatalf("Offsetof(Type) = %d, want 80", got)
	}
	if got := unsafe.Offsetof(p.value); got != 88 {
		t.Fatalf("Offsetof(value) = %d, want 88", got)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	alloc := newGoAllocator()
	in := mixed{
		I: -7, ISet: true,
		U: 4000000000, USet: true,
		L: -1 << 40, LSet: true,
		D: 0.25, DSet: true,
		B: true, BSet: true,
		S: "0-3", SSet: true,
	}

	params := Encode(alloc, in.fields())
	if len(params) != 6 {
		t.Fatalf("Encode() len = %d, want 6", len(params))
	}

	var out mixed
	Decode(params, out.fields())
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	Clear(alloc, params)
	if len(alloc.live) != 0 {
		t.Fatalf("Clear() left %d allocations", len(alloc.live))
	}
	Clear(alloc, params)
}

func TestRoundTripPartial(t *testing.T) {
	alloc := newGoAllocator()
	in := memory{SoftLimit: 87539319, SoftLimitSet: true, SwapHardLimit: 1 << 50, SwapHardLimitSet: true}

	params := Encode(alloc, in.fields())
	defer Clear(alloc, params)

	var out memory
	Decode(params, out.fields())
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeSparse(t *testing.T) {
	tests := []struct {
		name string
		in   memory
		want []string
	}{
		{name: "empty", in: memory{}, want: nil},
		{name: "soft only", in: memory{SoftLimit: 87539319, SoftLimitSet: true}, want: []string{"soft_limit"}},
		{name: "order kept", in: memory{
			SwapHardLimit: 1, SwapHardLimitSet: true,
			HardLimit: 2, HardLimitSet: true,
		}, want: []string{"hard_limit", "swap_hard_limit"}},
		{name: "zero value still sent", in: memory{MinGuaranteeSet: true}, want: []string{"min_guarantee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := Encode(newGoAllocator(), tt.in.fields())
			var got []string
			for i := range params {
				got = append(got, params[i].Name())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Encode() names (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeSetSoftLimit(t *testing.T) {
	params := []Param{NewUint64("soft_limit", 87539319)}

	var m memory
	Decode(params, m.fields())

	want := memory{SoftLimit: 87539319, SoftLimitSet: true}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSchedulerSubset(t *testing.T) {
	params := []Param{
		NewUint64("cpu_shares", 1024),
		NewUint64("vcpu_period", 100000),
	}

	var s sched
	Decode(params, s.fields())

	want := sched{CPUShares: 1024, CPUSharesSet: true, VcpuPeriod: 100000, VcpuPeriodSet: true}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeIgnoresUnknown(t *testing.T) {
	params := []Param{
		NewUint64("cpu_shares", 512),
		NewInt32("not_a_field", 3),
		NewBool("also_unknown", true),
	}

	var s sched
	Decode(params, s.fields())

	want := sched{CPUShares: 512, CPUSharesSet: true}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLeavesUnmatchedFields(t *testing.T) {
	m := memory{HardLimit: 5, HardLimitSet: true}
	Decode([]Param{NewUint64("soft_limit", 9)}, m.fields())

	want := memory{HardLimit: 5, HardLimitSet: true, SoftLimit: 9, SoftLimitSet: true}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeKindMismatchPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Decode() did not panic")
		}
		err, ok := r.(*KindMismatchError)
		if !ok {
			t.Fatalf("panic value = %T, want *KindMismatchError", r)
		}
		if err.Name != "hard_limit" || err.Want != KindUint64 || err.Got != KindInt32 {
			t.Fatalf("KindMismatchError = %+v", err)
		}
		if !strings.Contains(err.Error(), "ullong") {
			t.Fatalf("Error() = %q", err.Error())
		}
	}()

	var m memory
	Decode([]Param{NewInt32("hard_limit", 1)}, m.fields())
}

func TestLongNameTruncated(t *testing.T) {
	long := strings.Repeat("x", FieldLength+10)
	var v uint32
	set := true
	v = 42

	params := Encode(newGoAllocator(), []Field{Uint32(long, &v, &set)})
	if got := params[0].Name(); got != long[:FieldLength] {
		t.Fatalf("Name() = %q, want %d bytes", got, FieldLength)
	}

	var out uint32
	var outSet bool
	Decode(params, []Field{Uint32(long, &out, &outSet)})
	if !outSet || out != 42 {
		t.Fatalf("Decode() = %d, %v; want 42, true", out, outSet)
	}
}

func TestNamePrefixDoesNotMatch(t *testing.T) {
	var v uint64
	var set bool
	Decode([]Param{NewUint64("cpu_shares_extra", 1)}, []Field{Uint64("cpu_shares", &v, &set)})
	if set {
		t.Fatal("Decode() matched a longer name")
	}
}

func TestKindString(t *testing.T) {
	if got := KindString.String(); got != "string" {
		t.Fatalf("KindString.String() = %q", got)
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Fatalf("Kind(99).String() = %q", got)
	}
}

func TestViewAndPointer(t *testing.T) {
	if Pointer(nil) != nil {
		t.Fatal("Pointer(nil) != nil")
	}
	if View(0, 3) != nil {
		t.Fatal("View(0, 3) != nil")
	}
	params := []Param{NewUint64("a", 1), NewUint64("b", 2)}
	view := View(uintptr(Pointer(params)), len(params))
	if view[1].Name() != "b" || view[1].Uint64() != 2 {
		t.Fatalf("View()[1] = %q %d", view[1].Name(), view[1].Uint64())
	}
}
