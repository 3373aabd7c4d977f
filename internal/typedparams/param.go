// Package typedparams converts between libvirt's virTypedParameter arrays and
// Go records with optional fields.
//
// A record describes itself once as a list of Fields (name, kind, and
// pointers to its value and presence flag). The same list drives both
// directions: Decode fills the record from an array libvirt returned, Encode
// builds a sparse array from the fields that are set.
package typedparams

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FieldLength is VIR_TYPED_PARAM_FIELD_LENGTH.
const FieldLength = 80

// Kind is the virTypedParameterType discriminant.
type Kind int32

const (
	KindInt32   Kind = 1 // VIR_TYPED_PARAM_INT
	KindUint32  Kind = 2 // VIR_TYPED_PARAM_UINT
	KindInt64   Kind = 3 // VIR_TYPED_PARAM_LLONG
	KindUint64  Kind = 4 // VIR_TYPED_PARAM_ULLONG
	KindFloat64 Kind = 5 // VIR_TYPED_PARAM_DOUBLE
	KindBool    Kind = 6 // VIR_TYPED_PARAM_BOOLEAN
	KindString  Kind = 7 // VIR_TYPED_PARAM_STRING
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int"
	case KindUint32:
		return "uint"
	case KindInt64:
		return "llong"
	case KindUint64:
		return "ullong"
	case KindFloat64:
		return "double"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Param mirrors virTypedParameter: an 80 byte name, the type discriminant
// and an 8 byte value union. A slice of Param can be handed to libvirt as a
// virTypedParameterPtr.
type Param struct {
	Field [FieldLength]byte
	Type  Kind
	value uint64
}

// Name returns the field name. The name is not NUL-terminated when all 80
// bytes are used.
func (p *Param) Name() string {
	return unix.ByteSliceToString(p.Field[:])
}

func (p *Param) setName(name string) {
	p.Field = [FieldLength]byte{}
	copy(p.Field[:], name)
}

func (p *Param) union() unsafe.Pointer {
	return unsafe.Pointer(&p.value)
}

func (p *Param) Int32() int32     { return *(*int32)(p.union()) }
func (p *Param) Uint32() uint32   { return *(*uint32)(p.union()) }
func (p *Param) Int64() int64     { return *(*int64)(p.union()) }
func (p *Param) Uint64() uint64   { return *(*uint64)(p.union()) }
func (p *Param) Float64() float64 { return *(*float64)(p.union()) }
func (p *Param) Bool() bool       { return *(*byte)(p.union()) != 0 }

// StringPtr returns the raw char* of a string parameter.
func (p *Param) StringPtr() uintptr { return *(*uintptr)(p.union()) }

// StringValue copies the value of a string parameter.
func (p *Param) StringValue() string {
	ptr := p.StringPtr()
	if ptr == 0 {
		return ""
	}
	return unix.BytePtrToString((*byte)(unsafe.Pointer(ptr)))
}

func (p *Param) setInt32(v int32) {
	p.value = 0
	*(*int32)(p.union()) = v
}

func (p *Param) setUint32(v uint32) {
	p.value = 0
	*(*uint32)(p.union()) = v
}

func (p *Param) setInt64(v int64)     { *(*int64)(p.union()) = v }
func (p *Param) setUint64(v uint64)   { p.value = v }
func (p *Param) setFloat64(v float64) { *(*float64)(p.union()) = v }

func (p *Param) setBool(v bool) {
	p.value = 0
	if v {
		*(*byte)(p.union()) = 1
	}
}

func (p *Param) setStringPtr(ptr uintptr) { *(*uintptr)(p.union()) = ptr }

// NewInt32 and friends build a single parameter. They are mostly useful for
// tests and for callers assembling arrays by hand.
func NewInt32(name string, v int32) Param {
	p := Param{Type: KindInt32}
	p.setName(name)
	p.setInt32(v)
	return p
}

func NewUint32(name string, v uint32) Param {
	p := Param{Type: KindUint32}
	p.setName(name)
	p.setUint32(v)
	return p
}

func NewInt64(name string, v int64) Param {
	p := Param{Type: KindInt64}
	p.setName(name)
	p.setInt64(v)
	return p
}

func NewUint64(name string, v uint64) Param {
	p := Param{Type: KindUint64}
	p.setName(name)
	p.setUint64(v)
	return p
}

func NewFloat64(name string, v float64) Param {
	p := Param{Type: KindFloat64}
	p.setName(name)
	p.setFloat64(v)
	return p
}

func NewBool(name string, v bool) Param {
	p := Param{Type: KindBool}
	p.setName(name)
	p.setBool(v)
	return p
}

// NewString copies v into memory obtained from alloc. The caller owns the
// copy and releases it with Clear.
func NewString(alloc Allocator, name, v string) Param {
	p := Param{Type: KindString}
	p.setName(name)
	p.setStringPtr(alloc.CString(v))
	return p
}
