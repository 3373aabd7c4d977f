// Package event registers file descriptor watches and timers with libvirt's
// event loop. Callbacks are Go closures kept in a callback.Table; libvirt
// only ever holds the table id.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tinyrange/virt/internal/callback"
)

// HandleType is the virEventHandleType bit set.
type HandleType int

const (
	Readable HandleType = 1 << iota
	Writable
	Error
	Hangup
)

func (h HandleType) String() string {
	if h == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		bit  HandleType
		name string
	}{{Readable, "readable"}, {Writable, "writable"}, {Error, "error"}, {Hangup, "hangup"}} {
		if h&f.bit != 0 {
			parts = append(parts, f.name)
			h &^= f.bit
		}
	}
	if h != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", int(h)))
	}
	return strings.Join(parts, "|")
}

// HandleFunc runs when fd becomes ready for any of the watched events.
type HandleFunc func(w Watch, fd int, events HandleType, opaque any)

// TimeoutFunc runs each time a timer expires.
type TimeoutFunc func(t Timer, opaque any)

// FreeFunc disposes of the opaque value once libvirt drops the registration.
type FreeFunc func(opaque any)

// Driver is the foreign event loop. opaque is the callback table id that the
// driver hands back to the package trampolines.
type Driver interface {
	RegisterDefaultImpl() error
	RunDefaultImpl() error
	AddHandle(fd int, events HandleType, opaque uintptr) (int, error)
	UpdateHandle(watch int, events HandleType)
	RemoveHandle(watch int) error
	AddTimeout(interval int, opaque uintptr) (int, error)
	UpdateTimeout(timer int, interval int)
	RemoveTimeout(timer int) error
}

// registry holds every live watch and timer. It is package level because
// the trampolines are.
var registry = callback.NewTable("event", nil)

// Live returns the number of registrations libvirt has not freed yet.
func Live() int { return registry.Len() }

type handleEntry struct {
	loop *Loop
	fn   HandleFunc
}

type timeoutEntry struct {
	loop *Loop
	fn   TimeoutFunc
}

// Loop binds the package to one Driver.
type Loop struct {
	driver Driver
	log    *slog.Logger
}

// NewLoop returns a loop using driver. A nil logger means slog.Default.
func NewLoop(driver Driver, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{driver: driver, log: log}
}

var (
	defaultOnce sync.Once
	defaultLoop *Loop
)

// Default returns the loop backed by libvirt's default implementation.
func Default() *Loop {
	defaultOnce.Do(func() {
		defaultLoop = NewLoop(libvirtDriver{}, nil)
	})
	return defaultLoop
}

// Watch is a registered file descriptor watch.
type Watch struct {
	loop *Loop
	id   int
}

// ID is libvirt's watch number.
func (w Watch) ID() int { return w.id }

// Update changes the set of events the watch waits for.
func (w Watch) Update(events HandleType) {
	w.loop.driver.UpdateHandle(w.id, events)
}

// Remove unregisters the watch. The free function runs later, when libvirt
// releases the registration.
func (w Watch) Remove() error {
	if err := w.loop.driver.RemoveHandle(w.id); err != nil {
		return fmt.Errorf("remove watch %d: %w", w.id, err)
	}
	return nil
}

// Timer is a registered timeout.
type Timer struct {
	loop *Loop
	id   int
}

// ID is libvirt's timer number.
func (t Timer) ID() int { return t.id }

// Update changes the interval in milliseconds. -1 disables the timer and 0
// fires it on every loop iteration.
func (t Timer) Update(interval int) {
	t.loop.driver.UpdateTimeout(t.id, interval)
}

// Remove unregisters the timer. The free function runs later, when libvirt
// releases the registration.
func (t Timer) Remove() error {
	if err := t.loop.driver.RemoveTimeout(t.id); err != nil {
		return fmt.Errorf("remove timer %d: %w", t.id, err)
	}
	return nil
}

// AddHandle watches fd for events. free, if not nil, receives opaque exactly
// once after libvirt drops the watch. On error nothing was registered and
// free is not called.
func (l *Loop) AddHandle(fd int, events HandleType, cb HandleFunc, opaque any, free FreeFunc) (Watch, error) {
	rec := registry.Register(&handleEntry{loop: l, fn: cb}, opaque, freeFunc(free))
	id, err := l.driver.AddHandle(fd, events, rec.ID())
	if err != nil {
		registry.Reclaim(rec.ID())
		return Watch{}, fmt.Errorf("add handle for fd %d: %w", fd, err)
	}
	l.log.Debug("event handle added", "watch", id, "fd", fd, "events", events)
	return Watch{loop: l, id: id}, nil
}

// AddTimeout registers a timer firing every interval milliseconds.
func (l *Loop) AddTimeout(interval int, cb TimeoutFunc, opaque any, free FreeFunc) (Timer, error) {
	rec := registry.Register(&timeoutEntry{loop: l, fn: cb}, opaque, freeFunc(free))
	id, err := l.driver.AddTimeout(interval, rec.ID())
	if err != nil {
		registry.Reclaim(rec.ID())
		return Timer{}, fmt.Errorf("add timeout: %w", err)
	}
	l.log.Debug("event timeout added", "timer", id, "interval", interval)
	return Timer{loop: l, id: id}, nil
}

// RegisterDefaultImpl installs libvirt's poll based loop. It must run before
// the first connection is opened.
func (l *Loop) RegisterDefaultImpl() error {
	if err := l.driver.RegisterDefaultImpl(); err != nil {
		return fmt.Errorf("register default event impl: %w", err)
	}
	return nil
}

// RunDefaultImpl runs one iteration of the loop, blocking until at least one
// callback has been dispatched.
func (l *Loop) RunDefaultImpl() error {
	if err := l.driver.RunDefaultImpl(); err != nil {
		return fmt.Errorf("run default event impl: %w", err)
	}
	return nil
}

// RunDefaultImplContext iterates until ctx is done. Cancellation wakes a
// blocked iteration with a one-shot timer.
func (l *Loop) RunDefaultImplContext(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}
		_, err := l.AddTimeout(0, func(t Timer, _ any) {
			if err := t.Remove(); err != nil {
				l.log.Warn("remove wakeup timer", "error", err)
			}
		}, nil, nil)
		if err != nil {
			l.log.Warn("add wakeup timer", "error", err)
		}
	}()

	for ctx.Err() == nil {
		if err := l.RunDefaultImpl(); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func freeFunc(free FreeFunc) func(any) {
	if free == nil {
		return nil
	}
	return func(v any) { free(v) }
}

func dispatchHandle(watch, fd, events int, opaque uintptr) {
	callback.Invoke(registry, opaque, func(e *handleEntry, v any) {
		e.fn(Watch{loop: e.loop, id: watch}, fd, HandleType(events), v)
	})
}

func dispatchTimeout(timer int, opaque uintptr) {
	callback.Invoke(registry, opaque, func(e *timeoutEntry, v any) {
		e.fn(Timer{loop: e.loop, id: timer}, v)
	})
}

func releaseOpaque(opaque uintptr) {
	if err := registry.Release(opaque); err != nil {
		slog.Error("event free callback", "error", err)
	}
}

// AddHandle registers a watch on the default loop.
func AddHandle(fd int, events HandleType, cb HandleFunc, opaque any, free FreeFunc) (Watch, error) {
	return Default().AddHandle(fd, events, cb, opaque, free)
}

// AddTimeout registers a timer on the default loop.
func AddTimeout(interval int, cb TimeoutFunc, opaque any, free FreeFunc) (Timer, error) {
	return Default().AddTimeout(interval, cb, opaque, free)
}

func RegisterDefaultImpl() error { return Default().RegisterDefaultImpl() }

func RunDefaultImpl() error { return Default().RunDefaultImpl() }

func RunDefaultImplContext(ctx context.Context) error {
	return Default().RunDefaultImplContext(ctx)
}
