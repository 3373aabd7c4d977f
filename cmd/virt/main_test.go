package main

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/tinyrange/virt/internal/config"
	"github.com/tinyrange/virt/internal/libvirt"
)

func TestSubcommands(t *testing.T) {
	var got []string
	for _, c := range newRootCmd().Commands() {
		got = append(got, c.Name())
	}
	sort.Strings(got)
	want := []string{"blkiotune", "console", "hello", "jobinfo", "memtune", "migrate", "numatune", "schedinfo"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("subcommands (-want +got):\n%s", diff)
	}
}

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().StringVarP(&a.uri, "connect", "c", "", "")
	cmd.Flags().BoolVarP(&a.readOnly, "readonly", "r", false, "")
	return cmd
}

func TestInitUsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.Filename)
	if err := config.Save(path, config.Config{URI: "test:///default", ReadOnly: true}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	a := &app{configPath: path}
	if err := a.setup(newInitCmd(a)); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if a.uri != "test:///default" || !a.readOnly {
		t.Fatalf("setup() uri = %q readOnly = %v", a.uri, a.readOnly)
	}
}

func TestInitFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.Filename)
	if err := config.Save(path, config.Config{URI: "test:///default"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	a := &app{configPath: path}
	cmd := newInitCmd(a)
	if err := cmd.Flags().Set("connect", "qemu:///session"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := a.setup(cmd); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if a.uri != "qemu:///session" {
		t.Fatalf("setup() uri = %q, want flag value", a.uri)
	}
}

func TestImpactFlags(t *testing.T) {
	tests := []struct {
		f    impactFlags
		want libvirt.DomainModificationImpact
	}{
		{impactFlags{}, libvirt.DomainAffectCurrent},
		{impactFlags{current: true}, libvirt.DomainAffectCurrent},
		{impactFlags{live: true}, libvirt.DomainAffectLive},
		{impactFlags{live: true, config: true}, libvirt.DomainAffectLive | libvirt.DomainAffectConfig},
	}
	for _, tt := range tests {
		if got := tt.f.value(); got != tt.want {
			t.Fatalf("value(%+v) = %d, want %d", tt.f, got, tt.want)
		}
	}
}

func TestCaret(t *testing.T) {
	tests := map[byte]string{0x1d: "^]", 0x01: "^A", 0x7f: "^?", 'q': "q"}
	for in, want := range tests {
		if got := caret(in); got != want {
			t.Fatalf("caret(%#x) = %q, want %q", in, got, want)
		}
	}
}

func TestNumaModeName(t *testing.T) {
	if got := numaModeName(libvirt.NumaTuneMemInterleave); got != "interleave" {
		t.Fatalf("numaModeName() = %q", got)
	}
	if got := numaModeName(9); got != "9" {
		t.Fatalf("numaModeName(9) = %q", got)
	}
}

func TestAnyChanged(t *testing.T) {
	cmd := newMemtuneCmd(&app{})
	flags := cmd.Flags()
	if anyChanged(flags, "hard-limit", "soft-limit") {
		t.Fatal("anyChanged() = true before parsing")
	}
	if err := flags.Parse([]string{"--soft-limit", "87539319"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !anyChanged(flags, "hard-limit", "soft-limit") {
		t.Fatal("anyChanged() = false after --soft-limit")
	}
}
