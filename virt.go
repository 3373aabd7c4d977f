// Package virt binds libvirt without cgo. The shared library is loaded at
// runtime; typed parameter arrays are converted to Go records with optional
// fields, and Go closures are registered as libvirt callbacks through an id
// table so no Go pointer is ever stored in C memory.
package virt

import (
	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/event"
	"github.com/tinyrange/virt/internal/libvirt"
	"github.com/tinyrange/virt/internal/virterror"
)

// -----------------------------------------------------------------------------
// Type Aliases - These re-export types from internal packages
// -----------------------------------------------------------------------------

// Connect is a connection to a hypervisor driver.
type Connect = libvirt.Connect

// Domain is a guest known to a connection.
type Domain = libvirt.Domain

// Stream carries console and data transfers.
type Stream = libvirt.Stream

// Error is a libvirt error with its code, domain and message.
type Error = virterror.Error

type (
	DomainMemoryParameters    = libvirt.DomainMemoryParameters
	DomainNumaParameters      = libvirt.DomainNumaParameters
	DomainSchedulerParameters = libvirt.DomainSchedulerParameters
	DomainBlkioParameters     = libvirt.DomainBlkioParameters
	DomainJobInfo             = libvirt.DomainJobInfo
	DomainMigrateParameters   = libvirt.DomainMigrateParameters

	DomainModificationImpact   = libvirt.DomainModificationImpact
	DomainMetadataType         = libvirt.DomainMetadataType
	DomainMigrateFlags         = libvirt.DomainMigrateFlags
	DomainConsoleFlags         = libvirt.DomainConsoleFlags
	DomainJobType              = libvirt.DomainJobType
	DomainNumaTuneMemMode      = libvirt.DomainNumaTuneMemMode
	ConnectListAllDomainsFlags = libvirt.ConnectListAllDomainsFlags
	StreamFlags                = libvirt.StreamFlags
	StreamEventType            = libvirt.StreamEventType
	StreamEventFunc            = libvirt.StreamEventFunc
)

// Event loop types.
type (
	EventHandleType  = event.HandleType
	EventHandleFunc  = event.HandleFunc
	EventTimeoutFunc = event.TimeoutFunc
	EventFreeFunc    = event.FreeFunc
	EventWatch       = event.Watch
	EventTimer       = event.Timer
)

const (
	DomainAffectCurrent = libvirt.DomainAffectCurrent
	DomainAffectLive    = libvirt.DomainAffectLive
	DomainAffectConfig  = libvirt.DomainAffectConfig

	DomainMetadataDescription = libvirt.DomainMetadataDescription
	DomainMetadataTitle       = libvirt.DomainMetadataTitle
	DomainMetadataElement     = libvirt.DomainMetadataElement

	StreamNonBlock = libvirt.StreamNonBlock

	EventReadable = event.Readable
	EventWritable = event.Writable
	EventError    = event.Error
	EventHangup   = event.Hangup
)

// Common sentinel errors. Sentinels built from libvirt codes match any
// *Error with the same code under errors.Is.
var (
	// ErrUnavailable means the libvirt shared library could not be loaded.
	ErrUnavailable = bindings.ErrUnavailable
	ErrWouldBlock  = libvirt.ErrWouldBlock

	ErrNoDomain         = virterror.ErrNoDomain
	ErrNoDomainMetadata = virterror.ErrNoDomainMetadata
	ErrOperationInvalid = virterror.ErrOperationInvalid
	ErrNoSupport        = virterror.ErrNoSupport
)

// -----------------------------------------------------------------------------
// Connections
// -----------------------------------------------------------------------------

// Open connects to uri, loading libvirt on first use.
func Open(uri string) (*Connect, error) { return libvirt.Open(uri) }

// OpenReadOnly connects to uri without write access.
func OpenReadOnly(uri string) (*Connect, error) { return libvirt.OpenReadOnly(uri) }

// Load loads libvirt without connecting. It is safe to call repeatedly.
func Load() error { return bindings.Load() }

// -----------------------------------------------------------------------------
// Event loop
// -----------------------------------------------------------------------------

var (
	EventRegisterDefaultImpl   = event.RegisterDefaultImpl
	EventRunDefaultImpl        = event.RunDefaultImpl
	EventRunDefaultImplContext = event.RunDefaultImplContext
	EventAddHandle             = event.AddHandle
	EventAddTimeout            = event.AddTimeout
)

// VersionString formats a packed libvirt version as "vMAJOR.MINOR.RELEASE".
func VersionString(v uint64) string { return libvirt.VersionString(v) }
