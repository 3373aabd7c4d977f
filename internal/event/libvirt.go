package event

import (
	"sync"

	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/virterror"
)

var (
	trampolineOnce    sync.Once
	handleTrampoline  uintptr
	timeoutTrampoline uintptr
	freeTrampoline    uintptr
)

// Ints arrive as full registers; only the low 32 bits are meaningful.
func handleCallback(watch, fd, events, opaque uintptr) uintptr {
	dispatchHandle(int(int32(watch)), int(int32(fd)), int(int32(events)), opaque)
	return 0
}

func timeoutCallback(timer, opaque uintptr) uintptr {
	dispatchTimeout(int(int32(timer)), opaque)
	return 0
}

func freeCallback(opaque uintptr) uintptr {
	releaseOpaque(opaque)
	return 0
}

func trampolines() {
	trampolineOnce.Do(func() {
		bindings.MustLoad()
		handleTrampoline = bindings.NewCallback(handleCallback)
		timeoutTrampoline = bindings.NewCallback(timeoutCallback)
		freeTrampoline = bindings.NewCallback(freeCallback)
	})
}

// libvirtDriver forwards to virEvent*.
type libvirtDriver struct{}

func (libvirtDriver) RegisterDefaultImpl() error {
	return virterror.Call(func() bool { return bindings.VirEventRegisterDefaultImpl() == 0 })
}

func (libvirtDriver) RunDefaultImpl() error {
	return virterror.Call(func() bool { return bindings.VirEventRunDefaultImpl() == 0 })
}

func (libvirtDriver) AddHandle(fd int, events HandleType, opaque uintptr) (int, error) {
	trampolines()
	var watch int32
	err := virterror.Call(func() bool {
		watch = bindings.VirEventAddHandle(int32(fd), int32(events), handleTrampoline, opaque, freeTrampoline)
		return watch >= 0
	})
	return int(watch), err
}

func (libvirtDriver) UpdateHandle(watch int, events HandleType) {
	bindings.VirEventUpdateHandle(int32(watch), int32(events))
}

func (libvirtDriver) RemoveHandle(watch int) error {
	return virterror.Call(func() bool { return bindings.VirEventRemoveHandle(int32(watch)) == 0 })
}

func (libvirtDriver) AddTimeout(interval int, opaque uintptr) (int, error) {
	trampolines()
	var timer int32
	err := virterror.Call(func() bool {
		timer = bindings.VirEventAddTimeout(int32(interval), timeoutTrampoline, opaque, freeTrampoline)
		return timer >= 0
	})
	return int(timer), err
}

func (libvirtDriver) UpdateTimeout(timer int, interval int) {
	bindings.VirEventUpdateTimeout(int32(timer), int32(interval))
}

func (libvirtDriver) RemoveTimeout(timer int) error {
	return virterror.Call(func() bool { return bindings.VirEventRemoveTimeout(int32(timer)) == 0 })
}
