package libvirt

import "testing"

func TestStreamCallbackDispatchAndFree(t *testing.T) {
	before := streams.Len()
	s := &Stream{}

	var got []StreamEventType
	rec := streams.Register(&streamEntry{stream: s, fn: func(st *Stream, ev StreamEventType) {
		if st != s {
			t.Errorf("callback got stream %p, want %p", st, s)
		}
		got = append(got, ev)
	}}, nil, nil)

	dispatchStreamEvent(StreamEventReadable|StreamEventHangup, rec.ID())
	if len(got) != 1 || got[0] != StreamEventReadable|StreamEventHangup {
		t.Fatalf("events = %v", got)
	}

	releaseStreamCallback(rec.ID())
	if streams.Len() != before {
		t.Fatalf("Len() = %d, want %d", streams.Len(), before)
	}

	// Late events and a repeated free are logged, not fatal.
	dispatchStreamEvent(StreamEventReadable, rec.ID())
	releaseStreamCallback(rec.ID())
	if len(got) != 1 {
		t.Fatalf("callback ran after free: %v", got)
	}
}

func TestStreamFreeTwice(t *testing.T) {
	s := &Stream{}
	if err := s.Free(); err != nil {
		t.Fatalf("Free() on released stream error = %v", err)
	}
}
