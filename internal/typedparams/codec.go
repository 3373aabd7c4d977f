package typedparams

import (
	"fmt"
	"unsafe"
)

// Allocator hands out C memory for string values. Encode copies every
// string through it and Clear returns them.
type Allocator interface {
	CString(s string) uintptr
	Free(p uintptr)
}

// Field binds a parameter name and kind to a record's value and presence
// flag.
type Field struct {
	Name string
	Kind Kind

	value unsafe.Pointer
	set   *bool
}

func Int32(name string, v *int32, set *bool) Field {
	return Field{Name: name, Kind: KindInt32, value: unsafe.Pointer(v), set: set}
}

func Uint32(name string, v *uint32, set *bool) Field {
	return Field{Name: name, Kind: KindUint32, value: unsafe.Pointer(v), set: set}
}

func Int64(name string, v *int64, set *bool) Field {
	return Field{Name: name, Kind: KindInt64, value: unsafe.Pointer(v), set: set}
}

func Uint64(name string, v *uint64, set *bool) Field {
	return Field{Name: name, Kind: KindUint64, value: unsafe.Pointer(v), set: set}
}

func Float64(name string, v *float64, set *bool) Field {
	return Field{Name: name, Kind: KindFloat64, value: unsafe.Pointer(v), set: set}
}

func Bool(name string, v *bool, set *bool) Field {
	return Field{Name: name, Kind: KindBool, value: unsafe.Pointer(v), set: set}
}

func String(name string, v *string, set *bool) Field {
	return Field{Name: name, Kind: KindString, value: unsafe.Pointer(v), set: set}
}

// IsSet reports whether the record marks the field present.
func (f Field) IsSet() bool {
	return f.set != nil && *f.set
}

// matches compares the name the way libvirt does: at most FieldLength bytes,
// so a name that fills the buffer still matches its unterminated form.
func (f Field) matches(p *Param) bool {
	name := f.Name
	if len(name) > FieldLength {
		name = name[:FieldLength]
	}
	for i := 0; i < len(name); i++ {
		if p.Field[i] != name[i] {
			return false
		}
	}
	return len(name) == FieldLength || p.Field[len(name)] == 0
}

// KindMismatchError reports a parameter whose kind differs from the record
// field with the same name. It means the record and the library disagree
// about the ABI, so Decode panics with it rather than returning it.
type KindMismatchError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("typed parameter %q: expected %s, got %s", e.Name, e.Want, e.Got)
}

// Decode copies every parameter whose name matches a field into the record
// and marks it present. Parameters without a matching field are ignored and
// fields without a matching parameter are left as they were.
func Decode(params []Param, fields []Field) {
	for i := range params {
		p := &params[i]
		for _, f := range fields {
			if !f.matches(p) {
				continue
			}
			if p.Type != f.Kind {
				panic(&KindMismatchError{Name: f.Name, Want: f.Kind, Got: p.Type})
			}
			f.store(p)
			if f.set != nil {
				*f.set = true
			}
			break
		}
	}
}

func (f Field) store(p *Param) {
	switch f.Kind {
	case KindInt32:
		*(*int32)(f.value) = p.Int32()
	case KindUint32:
		*(*uint32)(f.value) = p.Uint32()
	case KindInt64:
		*(*int64)(f.value) = p.Int64()
	case KindUint64:
		*(*uint64)(f.value) = p.Uint64()
	case KindFloat64:
		*(*float64)(f.value) = p.Float64()
	case KindBool:
		*(*bool)(f.value) = p.Bool()
	case KindString:
		*(*string)(f.value) = p.StringValue()
	default:
		panic(&KindMismatchError{Name: f.Name, Want: f.Kind, Got: p.Type})
	}
}

// Encode returns one parameter per present field, in field order. String
// values are copied with alloc; release them with Clear once the foreign
// call returns.
func Encode(alloc Allocator, fields []Field) []Param {
	var params []Param
	for _, f := range fields {
		if !f.IsSet() {
			continue
		}
		p := Param{Type: f.Kind}
		p.setName(f.Name)
		switch f.Kind {
		case KindInt32:
			p.setInt32(*(*int32)(f.value))
		case KindUint32:
			p.setUint32(*(*uint32)(f.value))
		case KindInt64:
			p.setInt64(*(*int64)(f.value))
		case KindUint64:
			p.setUint64(*(*uint64)(f.value))
		case KindFloat64:
			p.setFloat64(*(*float64)(f.value))
		case KindBool:
			p.setBool(*(*bool)(f.value))
		case KindString:
			p.setStringPtr(alloc.CString(*(*string)(f.value)))
		default:
			panic(fmt.Sprintf("typedparams: field %q has unknown kind %d", f.Name, int32(f.Kind)))
		}
		params = append(params, p)
	}
	return params
}

// Clear frees the string values of an array built by Encode or NewString.
// Pointers are zeroed, so clearing twice is harmless.
func Clear(alloc Allocator, params []Param) {
	for i := range params {
		p := &params[i]
		if p.Type != KindString {
			continue
		}
		if ptr := p.StringPtr(); ptr != 0 {
			alloc.Free(ptr)
			p.setStringPtr(0)
		}
	}
}

// Pointer returns the address of the first element for passing to libvirt,
// or nil for an empty array.
func Pointer(params []Param) unsafe.Pointer {
	if len(params) == 0 {
		return nil
	}
	return unsafe.Pointer(&params[0])
}

// View reinterprets a C-owned virTypedParameter array as a slice. The slice
// is only valid until the array is cleared.
func View(ptr uintptr, n int) []Param {
	if ptr == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*Param)(unsafe.Pointer(ptr)), n)
}
