package libvirt

import (
	"errors"
	"testing"

	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/virterror"
)

const testURI = "test:///default"

func openTest(t *testing.T) *Connect {
	t.Helper()
	if err := bindings.Load(); err != nil {
		t.Skipf("libvirt not available: %v", err)
	}
	c, err := Open(testURI)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if _, err := c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return c
}

func testDomain(t *testing.T, c *Connect) *Domain {
	t.Helper()
	d, err := c.LookupDomainByName("test")
	if err != nil {
		t.Fatalf("LookupDomainByName() error = %v", err)
	}
	t.Cleanup(func() { d.Free() })
	return d
}

func TestConnectBasics(t *testing.T) {
	c := openTest(t)

	if typ, err := c.Type(); err != nil || typ != "TEST" {
		t.Fatalf("Type() = %q, %v", typ, err)
	}
	if uri, err := c.URI(); err != nil || uri != testURI {
		t.Fatalf("URI() = %q, %v", uri, err)
	}
	if alive, err := c.IsAlive(); err != nil || !alive {
		t.Fatalf("IsAlive() = %v, %v", alive, err)
	}
	if _, err := c.Hostname(); err != nil {
		t.Fatalf("Hostname() error = %v", err)
	}
	v, err := c.LibVersion()
	if err != nil || v == 0 {
		t.Fatalf("LibVersion() = %d, %v", v, err)
	}
	if ok, err := c.LibVersionAtLeast("v0.9.0"); err != nil || !ok {
		t.Fatalf("LibVersionAtLeast() = %v, %v", ok, err)
	}
}

func TestConnectCloneAndClose(t *testing.T) {
	c := openTest(t)

	c2, err := c.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	refs, err := c2.Close()
	if err != nil || refs < 1 {
		t.Fatalf("Close() = %d, %v; want remaining refs", refs, err)
	}
	if refs, err := c2.Close(); err != nil || refs != 0 {
		t.Fatalf("second Close() = %d, %v", refs, err)
	}
}

func TestListAllDomains(t *testing.T) {
	c := openTest(t)

	doms, err := c.ListAllDomains(0)
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}
	if len(doms) == 0 {
		t.Fatal("ListAllDomains() returned no domains")
	}
	for _, d := range doms {
		if err := d.Free(); err != nil {
			t.Fatalf("Free() error = %v", err)
		}
		if err := d.Free(); err != nil {
			t.Fatalf("second Free() error = %v", err)
		}
	}
}

func TestDomainIdentity(t *testing.T) {
	c := openTest(t)
	d := testDomain(t, c)

	if name, err := d.Name(); err != nil || name != "test" {
		t.Fatalf("Name() = %q, %v", name, err)
	}
	u, err := d.UUID()
	if err != nil || u.String() != "6695eb01-f6a4-8304-79aa-97f2502e193f" {
		t.Fatalf("UUID() = %v, %v", u, err)
	}
	if id, err := d.ID(); err != nil || id != 1 {
		t.Fatalf("ID() = %d, %v", id, err)
	}

	byUUID, err := c.LookupDomainByUUID("6695EB01-F6A4-8304-79AA-97F2502E193F")
	if err != nil {
		t.Fatalf("LookupDomainByUUID() error = %v", err)
	}
	defer byUUID.Free()
	if name, _ := byUUID.Name(); name != "test" {
		t.Fatalf("LookupDomainByUUID() name = %q", name)
	}

	if _, err := c.LookupDomainByUUID("not-a-uuid"); err == nil {
		t.Fatal("LookupDomainByUUID() with bad uuid error = nil")
	}
}

func TestLookupMissingDomain(t *testing.T) {
	c := openTest(t)

	_, err := c.LookupDomainByName("does-not-exist")
	if !errors.Is(err, virterror.ErrNoDomain) {
		t.Fatalf("LookupDomainByName() error = %v, want ErrNoDomain", err)
	}
}

func TestSuspendResume(t *testing.T) {
	c := openTest(t)
	d := testDomain(t, c)

	if err := d.Suspend(); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if err := d.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if active, err := d.IsActive(); err != nil || !active {
		t.Fatalf("IsActive() = %v, %v", active, err)
	}
}

func TestMetadataMissing(t *testing.T) {
	c := openTest(t)
	d := testDomain(t, c)

	_, err := d.Metadata(DomainMetadataElement, "http://example.org/none", DomainAffectLive)
	if !errors.Is(err, virterror.ErrNoDomainMetadata) {
		t.Fatalf("Metadata() error = %v, want ErrNoDomainMetadata", err)
	}
}

func TestSchedulerParameters(t *testing.T) {
	c := openTest(t)
	d := testDomain(t, c)

	params, err := d.GetSchedulerParameters(DomainAffectCurrent)
	if errors.Is(err, virterror.ErrNoSupport) {
		t.Skip("scheduler parameters not supported by this driver")
	}
	if err != nil {
		t.Fatalf("GetSchedulerParameters() error = %v", err)
	}
	if params.Type == "" {
		t.Fatal("GetSchedulerParameters() Type is empty")
	}
}

func TestMemoryParameters(t *testing.T) {
	c := openTest(t)
	d := testDomain(t, c)

	if _, err := d.GetMemoryParameters(DomainAffectLive); err != nil {
		if errors.Is(err, virterror.ErrNoSupport) {
			t.Skip("memory parameters not supported by this driver")
		}
		t.Fatalf("GetMemoryParameters() error = %v", err)
	}
}

func TestStreamEventCallbackRequiresLoop(t *testing.T) {
	c := openTest(t)

	st, err := c.NewStream(StreamNonBlock)
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}
	defer st.Free()

	before := streams.Len()
	// The stream is not attached to anything, so libvirt refuses the
	// callback and the registration must be reclaimed.
	if err := st.EventAddCallback(StreamEventReadable, func(*Stream, StreamEventType) {}); err == nil {
		st.EventRemoveCallback()
		t.Skip("driver accepted a callback on an unattached stream")
	}
	if streams.Len() != before {
		t.Fatalf("Len() = %d after failed add, want %d", streams.Len(), before)
	}
}
