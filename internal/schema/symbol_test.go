package schema

import "testing"

func TestSymbolRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "BTC-USDT", "BTC-USDT"},
		{"empty", "", ""},
		{"exact width", "ABCDEFGHIJKLMNOPQRSTUVWX", "ABCDEFGHIJKLMNOPQRSTUVWX"},
		{"truncated", "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "ABCDEFGHIJKLMNOPQRSTUVWX"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSymbol(tc.in)
			if got := s.String(); got != tc.want {
				t.Fatalf("String: got %q want %q", got, tc.want)
			}
			if got := s.Len(); got != len(tc.want) {
				t.Fatalf("Len: got %d want %d", got, len(tc.want))
			}
		})
	}
}

func TestSymbolPadding(t *testing.T) {
	s := NewSymbol("ETH-USDT")
	for i := len("ETH-USDT"); i < SymbolSize; i++ {
		if s[i] != 0 {
			t.Fatalf("byte %d not NUL: %#x", i, s[i])
		}
	}
	if s.IsZero() {
		t.Fatalf("non-empty symbol reported zero")
	}
	var zero Symbol
	if !zero.IsZero() {
		t.Fatalf("zero symbol not reported zero")
	}
}

func TestSymbolAppendBytes(t *testing.T) {
	s := NewSymbol("SOL-USDT")
	buf := s.AppendBytes(make([]byte, 0, SymbolSize))
	if string(buf) != "SOL-USDT" {
		t.Fatalf("AppendBytes: got %q", buf)
	}
}
