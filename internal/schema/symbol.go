package schema

// SymbolSize is the fixed width of a symbol field on the wire.
const SymbolSize = 24

// Symbol is a fixed-width, NUL-padded instrument name.
type Symbol [SymbolSize]byte

// NewSymbol builds a symbol from a string, truncating past SymbolSize bytes.
func NewSymbol(name string) Symbol {
	var s Symbol
	copy(s[:], name)
	return s
}

// String returns the name with trailing NUL padding removed.
func (s Symbol) String() string {
	return string(s[:s.Len()])
}

// Len returns the name length without trailing NUL padding.
func (s Symbol) Len() int {
	n := len(s)
	for n > 0 && s[n-1] == 0 {
		n--
	}
	return n
}

// IsZero reports whether the symbol is empty.
func (s Symbol) IsZero() bool {
	return s.Len() == 0
}

// AppendBytes appends the unpadded name to buf.
func (s Symbol) AppendBytes(buf []byte) []byte {
	return append(buf, s[:s.Len()]...)
}
