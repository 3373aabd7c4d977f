package libvirt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyrange/virt/internal/bindings"
	"github.com/tinyrange/virt/internal/callback"
	"github.com/tinyrange/virt/internal/virterror"
)

// ErrWouldBlock is returned by Send and Recv on a non-blocking stream that
// is not ready.
var ErrWouldBlock = errors.New("libvirt: stream operation would block")

// StreamFlags is virStreamFlags.
type StreamFlags uint32

const StreamNonBlock StreamFlags = 1 << 0

// StreamEventType is virStreamEventType.
type StreamEventType int32

const (
	StreamEventReadable StreamEventType = 1 << 0
	StreamEventWritable StreamEventType = 1 << 1
	StreamEventError    StreamEventType = 1 << 2
	StreamEventHangup   StreamEventType = 1 << 3
)

// StreamEventFunc is called from the event loop when the stream is ready.
type StreamEventFunc func(s *Stream, events StreamEventType)

// Stream is a virStreamPtr.
type Stream struct {
	ptr uintptr
}

func (s *Stream) Free() error {
	if s.ptr == 0 {
		return nil
	}
	err := virterror.Call(func() bool { return bindings.VirStreamFree(s.ptr) == 0 })
	s.ptr = 0
	if err != nil {
		return fmt.Errorf("free stream: %w", err)
	}
	return nil
}

func (s *Stream) Clone() (*Stream, error) {
	if err := virterror.Call(func() bool { return bindings.VirStreamRef(s.ptr) == 0 }); err != nil {
		return nil, fmt.Errorf("ref stream: %w", err)
	}
	return &Stream{ptr: s.ptr}, nil
}

// Finish completes the transfer once the other end has seen end of stream.
func (s *Stream) Finish() error {
	if err := virterror.Call(func() bool { return bindings.VirStreamFinish(s.ptr) == 0 }); err != nil {
		return fmt.Errorf("finish stream: %w", err)
	}
	return nil
}

func (s *Stream) Abort() error {
	if err := virterror.Call(func() bool { return bindings.VirStreamAbort(s.ptr) == 0 }); err != nil {
		return fmt.Errorf("abort stream: %w", err)
	}
	return nil
}

func (s *Stream) transfer(what string, data []byte, fn func(uintptr, []byte) int32) (int, error) {
	var n int32
	err := virterror.Call(func() bool {
		n = fn(s.ptr, data)
		return n != bindings.StreamError
	})
	if err != nil {
		return 0, fmt.Errorf("stream %s: %w", what, err)
	}
	if n == bindings.StreamWouldBlock {
		return 0, ErrWouldBlock
	}
	return int(n), nil
}

// Send writes up to len(data) bytes and returns how many were accepted.
func (s *Stream) Send(data []byte) (int, error) {
	return s.transfer("send", data, bindings.VirStreamSend)
}

// Recv reads into data. A zero count with a nil error means end of stream.
func (s *Stream) Recv(data []byte) (int, error) {
	return s.transfer("recv", data, bindings.VirStreamRecv)
}

var streams = callback.NewTable("stream", nil)

type streamEntry struct {
	stream *Stream
	fn     StreamEventFunc
}

var (
	streamTrampolineOnce  sync.Once
	streamEventTrampoline uintptr
	streamFreeTrampoline  uintptr
)

func streamEventCallback(st, events, opaque uintptr) uintptr {
	dispatchStreamEvent(StreamEventType(int32(events)), opaque)
	return 0
}

func streamFreeCallback(opaque uintptr) uintptr {
	releaseStreamCallback(opaque)
	return 0
}

func dispatchStreamEvent(events StreamEventType, opaque uintptr) {
	callback.Invoke(streams, opaque, func(e *streamEntry, _ any) {
		e.fn(e.stream, events)
	})
}

func releaseStreamCallback(opaque uintptr) {
	if err := streams.Release(opaque); err != nil {
		slog.Error("stream free callback", "error", err)
	}
}

// EventAddCallback registers cb with the event loop. Only one callback may
// be registered per stream. The registration is released when the callback
// is removed or the stream is freed.
func (s *Stream) EventAddCallback(events StreamEventType, cb StreamEventFunc) error {
	streamTrampolineOnce.Do(func() {
		streamEventTrampoline = bindings.NewCallback(streamEventCallback)
		streamFreeTrampoline = bindings.NewCallback(streamFreeCallback)
	})

	rec := streams.Register(&streamEntry{stream: s, fn: cb}, nil, nil)
	err := virterror.Call(func() bool {
		return bindings.VirStreamEventAddCallback(s.ptr, int32(events), streamEventTrampoline, rec.ID(), streamFreeTrampoline) == 0
	})
	if err != nil {
		streams.Reclaim(rec.ID())
		return fmt.Errorf("add stream callback: %w", err)
	}
	return nil
}

func (s *Stream) EventUpdateCallback(events StreamEventType) error {
	if err := virterror.Call(func() bool { return bindings.VirStreamEventUpdateCallback(s.ptr, int32(events)) == 0 }); err != nil {
		return fmt.Errorf("update stream callback: %w", err)
	}
	return nil
}

func (s *Stream) EventRemoveCallback() error {
	if err := virterror.Call(func() bool { return bindings.VirStreamEventRemoveCallback(s.ptr) == 0 }); err != nil {
		return fmt.Errorf("remove stream callback: %w", err)
	}
	return nil
}
