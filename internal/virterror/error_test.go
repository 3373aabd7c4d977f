package virterror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tinyrange/virt/internal/bindings"
	"golang.org/x/sys/unix"
)

func TestFromC(t *testing.T) {
	msg, err := unix.BytePtrFromString("Domain not found: no domain with matching name 'nope'")
	if err != nil {
		t.Fatalf("BytePtrFromString() error = %v", err)
	}
	got := FromC(&bindings.Error{Code: 42, Domain: 12, Message: msg, Level: 2})

	want := Error{Code: CodeNoDomain, Domain: FromTest, Message: "Domain not found: no domain with matching name 'nope'", Level: LevelError}
	if *got != want {
		t.Fatalf("FromC() = %+v, want %+v", *got, want)
	}
}

func TestFromCNil(t *testing.T) {
	got := FromC(nil)
	if got.Code != CodeOK || got.Message != "missing error" {
		t.Fatalf("FromC(nil) = %+v", got)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{Code: CodeNoDomain, Domain: FromTest, Message: "gone"}
	if got, want := e.Error(), "virError(Code=42, Domain=12, Message='gone')"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestIsByCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same code", &Error{Code: CodeNoDomainMetadata, Domain: FromDomain, Message: "x"}, ErrNoDomainMetadata, true},
		{"wrapped", fmt.Errorf("metadata: %w", &Error{Code: CodeNoDomain}), ErrNoDomain, true},
		{"other code", &Error{Code: CodeNoDomain}, ErrOperationInvalid, false},
		{"not a virError", errors.New("plain"), ErrNoDomain, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Fatalf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeString(t *testing.T) {
	if got := CodeNoSupport.String(); got != "no support" {
		t.Fatalf("String() = %q", got)
	}
	if got := Code(1000).String(); got != "code 1000" {
		t.Fatalf("String() = %q", got)
	}
	if got := LevelWarning.String(); got != "warning" {
		t.Fatalf("String() = %q", got)
	}
}

func TestCallSuccessSkipsCapture(t *testing.T) {
	// A successful call must not touch libvirt, so this runs without it.
	ran := false
	if err := Call(func() bool { ran = true; return true }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !ran {
		t.Fatal("Call() did not run fn")
	}
}
