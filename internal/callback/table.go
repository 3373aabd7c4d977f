// Package callback keeps Go closures reachable from C callbacks.
//
// C code never sees a Go pointer. A registration is stored in a Table and the
// foreign side is handed its numeric id as the opaque pointer. The invoke
// trampoline looks the id up and dispatches; the free trampoline calls
// Release, which runs the user's free function exactly once and forgets the
// record.
package callback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const numShards = 64

var (
	// ErrUnknownID is returned by Release for an id the table never issued
	// or has already forgotten.
	ErrUnknownID = errors.New("callback: unknown registration id")
	// ErrAlreadyFreed is returned by Release when the record's free
	// function already ran.
	ErrAlreadyFreed = errors.New("callback: registration already freed")
)

const (
	stateRegistered int32 = iota
	stateFreed
)

// Record is one registration: the closure, the caller's context and the
// function that disposes of that context.
type Record struct {
	id     uintptr
	fn     any
	opaque any
	free   func(any)
	state  atomic.Int32
}

// ID is the value handed to the foreign side as the opaque pointer.
func (r *Record) ID() uintptr { return r.id }

// Opaque returns the context passed to Register.
func (r *Record) Opaque() any { return r.opaque }

// Func returns the registered closure.
func (r *Record) Func() any { return r.fn }

// Freed reports whether the record has been released.
func (r *Record) Freed() bool { return r.state.Load() == stateFreed }

// markFreed performs the single registered -> freed transition.
func (r *Record) markFreed() bool {
	return r.state.CompareAndSwap(stateRegistered, stateFreed)
}

type shard struct {
	mu      sync.RWMutex
	records map[uintptr]*Record
}

// Table is a sharded registry of callback records. The zero value is not
// usable; create one with NewTable.
type Table struct {
	name   string
	log    *slog.Logger
	shards [numShards]shard
	next   atomic.Uintptr
}

// NewTable returns an empty table. name shows up in log records.
func NewTable(name string, log *slog.Logger) *Table {
	if log == nil {
		log = slog.Default()
	}
	t := &Table{name: name, log: log.With("table", name)}
	for i := range t.shards {
		t.shards[i].records = make(map[uintptr]*Record)
	}
	// Ids start at 1 so 0 stays invalid.
	t.next.Store(1)
	return t
}

func (t *Table) shard(id uintptr) *shard {
	return &t.shards[id%numShards]
}

// Register stores fn with its context. free may be nil.
func (t *Table) Register(fn any, opaque any, free func(any)) *Record {
	r := &Record{fn: fn, opaque: opaque, free: free}
	r.id = t.next.Add(1) - 1
	s := t.shard(r.id)
	s.mu.Lock()
	s.records[r.id] = r
	s.mu.Unlock()
	return r
}

// Lookup returns the live record for id.
func (t *Table) Lookup(id uintptr) (*Record, bool) {
	if id == 0 {
		return nil, false
	}
	s := t.shard(id)
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	return r, ok
}

func (t *Table) remove(id uintptr) *Record {
	if id == 0 {
		return nil
	}
	s := t.shard(id)
	s.mu.Lock()
	r := s.records[id]
	delete(s.records, id)
	s.mu.Unlock()
	return r
}

// Release runs the record's free function with its context and drops it from
// the table. A second Release of the same id returns ErrAlreadyFreed if the
// caller still holds the record, otherwise ErrUnknownID.
func (t *Table) Release(id uintptr) error {
	r := t.remove(id)
	if r == nil {
		return fmt.Errorf("release %d: %w", id, ErrUnknownID)
	}
	return t.releaseRecord(r)
}

// ReleaseRecord is Release for a caller that already holds the record.
func (t *Table) ReleaseRecord(r *Record) error {
	t.remove(r.id)
	return t.releaseRecord(r)
}

func (t *Table) releaseRecord(r *Record) error {
	if !r.markFreed() {
		return fmt.Errorf("release %d: %w", r.id, ErrAlreadyFreed)
	}
	if r.free != nil {
		Guard(t.log, "free", func() { r.free(r.opaque) })
	}
	return nil
}

// Reclaim drops a record without running its free function. It is used when
// the foreign registration failed, so the caller still owns the context.
func (t *Table) Reclaim(id uintptr) {
	if r := t.remove(id); r != nil {
		r.markFreed()
	}
}

// Len returns the number of live records.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		n += len(s.records)
		s.mu.RUnlock()
	}
	return n
}

// Invoke looks up id and calls call with the closure asserted to F and the
// record's context. Unknown ids and closures of another type are logged and
// skipped; a panic inside call is recovered. It reports whether call ran.
func Invoke[F any](t *Table, id uintptr, call func(fn F, opaque any)) bool {
	r, ok := t.Lookup(id)
	if !ok {
		t.log.Error("callback for unknown registration", "id", id)
		return false
	}
	fn, ok := r.fn.(F)
	if !ok {
		t.log.Error("callback type mismatch", "id", id, "type", fmt.Sprintf("%T", r.fn))
		return false
	}
	Guard(t.log, "invoke", func() { call(fn, r.opaque) })
	return true
}

// Guard runs fn and logs a panic instead of letting it unwind into C.
func Guard(log *slog.Logger, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in callback", "op", what, "panic", r)
		}
	}()
	fn()
}
