// Package virterror turns libvirt's thread-local last error into Go errors.
package virterror

import (
	"fmt"
	"runtime"

	"github.com/tinyrange/virt/internal/bindings"
	"golang.org/x/sys/unix"
)

// Code is virErrorNumber.
type Code int32

const (
	CodeOK                 Code = 0
	CodeInternalError      Code = 1
	CodeNoMemory           Code = 2
	CodeNoSupport          Code = 3
	CodeNoConnect          Code = 5
	CodeInvalidConn        Code = 6
	CodeInvalidDomain      Code = 7
	CodeInvalidArg         Code = 8
	CodeOperationFailed    Code = 9
	CodeXMLError           Code = 27
	CodeDomainExists       Code = 28
	CodeOperationDenied    Code = 29
	CodeSystemError        Code = 38
	CodeRPC                Code = 39
	CodeNoDomain           Code = 42
	CodeAuthFailed         Code = 45
	CodeOperationInvalid   Code = 55
	CodeConfigUnsupported  Code = 67
	CodeOperationTimeout   Code = 68
	CodeInvalidStream      Code = 73
	CodeArgUnsupported     Code = 74
	CodeOperationAborted   Code = 78
	CodeNoDomainMetadata   Code = 80
	CodeOperationUnsupport Code = 84
	CodeResourceBusy       Code = 87
	CodeAccessDenied       Code = 88
)

var codeNames = map[Code]string{
	CodeOK:                 "ok",
	CodeInternalError:      "internal error",
	CodeNoMemory:           "no memory",
	CodeNoSupport:          "no support",
	CodeNoConnect:          "no connect",
	CodeInvalidConn:        "invalid connection",
	CodeInvalidDomain:      "invalid domain",
	CodeInvalidArg:         "invalid argument",
	CodeOperationFailed:    "operation failed",
	CodeXMLError:           "xml error",
	CodeDomainExists:       "domain exists",
	CodeOperationDenied:    "operation denied",
	CodeSystemError:        "system error",
	CodeRPC:                "rpc",
	CodeNoDomain:           "no domain",
	CodeAuthFailed:         "auth failed",
	CodeOperationInvalid:   "operation invalid",
	CodeConfigUnsupported:  "config unsupported",
	CodeOperationTimeout:   "operation timeout",
	CodeInvalidStream:      "invalid stream",
	CodeArgUnsupported:     "argument unsupported",
	CodeOperationAborted:   "operation aborted",
	CodeNoDomainMetadata:   "no domain metadata",
	CodeOperationUnsupport: "operation unsupported",
	CodeResourceBusy:       "resource busy",
	CodeAccessDenied:       "access denied",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code %d", int32(c))
}

// Domain is virErrorDomain, the subsystem that raised the error.
type Domain int32

const (
	FromNone    Domain = 0
	FromXML     Domain = 5
	FromDom     Domain = 6
	FromRPC     Domain = 7
	FromConf    Domain = 9
	FromQEMU    Domain = 10
	FromTest    Domain = 12
	FromRemote  Domain = 13
	FromLXC     Domain = 17
	FromStorage Domain = 18
	FromNetwork Domain = 19
	FromDomain  Domain = 20
	FromStreams Domain = 38
)

// Level is virErrorLevel.
type Level int32

const (
	LevelNone    Level = 0
	LevelWarning Level = 1
	LevelError   Level = 2
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level %d", int32(l))
	}
}

// Error is a copy of a virError.
type Error struct {
	Code    Code
	Domain  Domain
	Message string
	Level   Level
}

func (e *Error) Error() string {
	return fmt.Sprintf("virError(Code=%d, Domain=%d, Message='%s')", e.Code, e.Domain, e.Message)
}

// Is matches on the error code, so a sentinel such as ErrNoDomain matches any
// error with that code regardless of domain or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNoSupport          = &Error{Code: CodeNoSupport}
	ErrInvalidArg         = &Error{Code: CodeInvalidArg}
	ErrOperationFailed    = &Error{Code: CodeOperationFailed}
	ErrNoDomain           = &Error{Code: CodeNoDomain}
	ErrOperationInvalid   = &Error{Code: CodeOperationInvalid}
	ErrNoDomainMetadata   = &Error{Code: CodeNoDomainMetadata}
	ErrOperationAborted   = &Error{Code: CodeOperationAborted}
	ErrArgUnsupported     = &Error{Code: CodeArgUnsupported}
	ErrInvalidStream      = &Error{Code: CodeInvalidStream}
	ErrOperationTimeout   = &Error{Code: CodeOperationTimeout}
	ErrAccessDenied       = &Error{Code: CodeAccessDenied}
	ErrOperationUnsupport = &Error{Code: CodeOperationUnsupport}
)

// FromC copies a virError. A nil pointer means libvirt reported failure
// without recording why.
func FromC(e *bindings.Error) *Error {
	if e == nil {
		return &Error{Code: CodeOK, Domain: FromNone, Message: "missing error", Level: LevelNone}
	}
	out := &Error{
		Code:   Code(e.Code),
		Domain: Domain(e.Domain),
		Level:  Level(e.Level),
	}
	if e.Message != nil {
		out.Message = unix.BytePtrToString(e.Message)
	}
	return out
}

// Last copies and clears the calling thread's last error. It is only
// meaningful on the OS thread that made the failing call; use Call to keep
// the two together.
func Last() *Error {
	err := FromC(bindings.VirGetLastError())
	bindings.VirResetLastError()
	return err
}

// Call runs fn pinned to one OS thread. If fn reports failure the thread's
// libvirt error is captured before the goroutine can migrate.
func Call(fn func() bool) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if fn() {
		return nil
	}
	return Last()
}
