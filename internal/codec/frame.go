package codec

import (
	"encoding/binary"
	"math"

	"main/internal/schema"
)

// EncodeFrameHeader serializes a frame header into its fixed 32-byte form.
func EncodeFrameHeader(dst []byte, h schema.FrameHeader) []byte {
	if cap(dst) < schema.FrameHeaderSize {
		dst = make([]byte, schema.FrameHeaderSize)
	} else {
		dst = dst[:schema.FrameHeaderSize]
	}
	putFrameHeader(dst, h)
	return dst
}

// DecodeFrameHeader parses the fixed 32-byte frame header.
func DecodeFrameHeader(src []byte) (schema.FrameHeader, bool) {
	if len(src) < schema.FrameHeaderSize {
		return schema.FrameHeader{}, false
	}
	return schema.FrameHeader{
		Length:      binary.LittleEndian.Uint32(src[0:4]),
		Type:        schema.MsgType(binary.LittleEndian.Uint32(src[4:8])),
		GenTime:     binary.LittleEndian.Uint64(src[8:16]),
		TriggerTime: binary.LittleEndian.Uint64(src[16:24]),
		Source:      binary.LittleEndian.Uint32(src[24:28]),
		Dest:        binary.LittleEndian.Uint32(src[28:32]),
	}, true
}

func putFrameHeader(dst []byte, h schema.FrameHeader) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Length)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(h.Type))
	binary.LittleEndian.PutUint64(dst[8:16], h.GenTime)
	binary.LittleEndian.PutUint64(dst[16:24], h.TriggerTime)
	binary.LittleEndian.PutUint32(dst[24:28], h.Source)
	binary.LittleEndian.PutUint32(dst[28:32], h.Dest)
}

// PutSymbol writes a fixed-width NUL-padded symbol field.
func PutSymbol(dst []byte, s schema.Symbol) {
	copy(dst[:schema.SymbolSize], s[:])
}

// GetSymbol reads a fixed-width NUL-padded symbol field.
func GetSymbol(src []byte) schema.Symbol {
	var s schema.Symbol
	copy(s[:], src[:schema.SymbolSize])
	return s
}

func putFloat64(dst []byte, v float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}

func getFloat64(src []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(src))
}
