package schema

import "testing"

func TestDefaultRegistrySizes(t *testing.T) {
	r := DefaultRegistry()
	size, ok := r.FrameSize(MsgTicker)
	if !ok || size != TickerFrameSize {
		t.Fatalf("ticker size: got %d ok=%v", size, ok)
	}
	size, ok = r.FrameSize(MsgOrder)
	if !ok || size != OrderFrameSize {
		t.Fatalf("order size: got %d ok=%v", size, ok)
	}
	if _, ok := r.FrameSize(MsgType(99)); ok {
		t.Fatalf("unregistered type resolved")
	}
	if r.Count() != 2 {
		t.Fatalf("count: got %d want 2", r.Count())
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	cases := []struct {
		name    string
		msgType MsgType
		size    uint32
	}{
		{"zero type", MsgUnknown, 128},
		{"below header", MsgType(3), 24},
		{"unaligned", MsgType(3), 100},
		{"duplicate", MsgTicker, 128},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := DefaultRegistry()
			if err := r.Register(tc.msgType, tc.size); err == nil {
				t.Fatalf("expected error for type=%d size=%d", tc.msgType, tc.size)
			}
		})
	}
}

func TestRegistryExtension(t *testing.T) {
	r := DefaultRegistry()
	const msgHeartbeat = MsgType(3)
	if err := r.Register(msgHeartbeat, 64); err != nil {
		t.Fatalf("register: %v", err)
	}
	size, ok := r.FrameSize(msgHeartbeat)
	if !ok || size != 64 {
		t.Fatalf("heartbeat size: got %d ok=%v", size, ok)
	}
	types := r.Types()
	want := []MsgType{MsgTicker, MsgOrder, msgHeartbeat}
	if len(types) != len(want) {
		t.Fatalf("types: got %v want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types[%d]: got %d want %d", i, types[i], want[i])
		}
	}
}

func TestNewHeaderLength(t *testing.T) {
	h := NewHeader(MsgTicker, 10, 20, 1, 2)
	if h.Length != TickerFrameSize {
		t.Fatalf("ticker header length: got %d", h.Length)
	}
	if h.Type != MsgTicker || h.GenTime != 10 || h.TriggerTime != 20 || h.Source != 1 || h.Dest != 2 {
		t.Fatalf("header fields: %+v", h)
	}
	if got := NewHeader(MsgType(9), 0, 0, 0, 0).Length; got != 0 {
		t.Fatalf("unknown type length: got %d want 0", got)
	}
}
