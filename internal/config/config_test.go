package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), Filename))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Fatalf("Load() (-want +got):\n%s", diff)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", Filename)
	in := Config{
		URI:      "qemu:///system",
		ReadOnly: true,
		LogLevel: "debug",
		Console:  ConsoleConfig{Escape: "^a", Force: true},
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	in.Version = 1
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("Load() (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"escape": "console:\n  escape: \"abc\"\n",
		"level":  "logLevel: loud\n",
		"yaml":   "uri: [unterminated\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), Filename)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("Load() error = nil")
			}
		})
	}
}

func TestEscapeByte(t *testing.T) {
	tests := []struct {
		in   string
		want byte
	}{
		{"^]", 0x1d},
		{"^a", 0x01},
		{"^?", 0x7f},
		{"q", 'q'},
	}
	for _, tt := range tests {
		c := Config{Console: ConsoleConfig{Escape: tt.in}}
		got, err := c.EscapeByte()
		if err != nil {
			t.Fatalf("EscapeByte(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("EscapeByte(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	c := Config{LogLevel: "warn"}
	l, err := c.Level()
	if err != nil || l != slog.LevelWarn {
		t.Fatalf("Level() = %v, %v", l, err)
	}
}
