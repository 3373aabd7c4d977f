package virt_test

import (
	"errors"
	"fmt"
	"testing"

	virt "github.com/tinyrange/virt"
)

func TestEndToEnd(t *testing.T) {
	conn, err := virt.Open("test:///default")
	if err != nil {
		if errors.Is(err, virt.ErrUnavailable) {
			t.Skip("Skipping: libvirt unavailable")
		}
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	dom, err := conn.LookupDomainByName("test")
	if err != nil {
		t.Fatalf("LookupDomainByName() error = %v", err)
	}
	defer dom.Free()

	_, err = dom.Metadata(virt.DomainMetadataElement, "http://example.org/none", virt.DomainAffectLive)
	if !errors.Is(err, virt.ErrNoDomainMetadata) {
		t.Fatalf("Metadata() error = %v, want ErrNoDomainMetadata", err)
	}
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &virt.Error{Code: 42, Message: "Domain not found"})
	if !errors.Is(err, virt.ErrNoDomain) {
		t.Error("ErrNoDomain should match code 42")
	}
	if errors.Is(err, virt.ErrNoSupport) {
		t.Error("ErrNoSupport should not match code 42")
	}
}

func TestEventHandleTypes(t *testing.T) {
	if virt.EventReadable != 1 || virt.EventWritable != 2 || virt.EventError != 4 || virt.EventHangup != 8 {
		t.Error("event handle bits do not match virEventHandleType")
	}
}

func TestVersionString(t *testing.T) {
	if got := virt.VersionString(1002003); got != "v1.2.3" {
		t.Errorf("VersionString() = %q", got)
	}
}
