package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

// EncodeOrder serializes a full order frame, header included. The header
// length and type are forced to the order frame layout.
func EncodeOrder(dst []byte, h schema.FrameHeader, o schema.Order) []byte {
	size := int(schema.OrderFrameSize)
	if cap(dst) < size {
		dst = make([]byte, size)
	} else {
		dst = dst[:size]
	}

	h.Length = schema.OrderFrameSize
	h.Type = schema.MsgOrder
	putFrameHeader(dst[0:32], h)

	PutSymbol(dst[32:56], o.Symbol)
	binary.LittleEndian.PutUint64(dst[56:64], o.OrderID)
	binary.LittleEndian.PutUint32(dst[64:68], uint32(o.Side))
	binary.LittleEndian.PutUint32(dst[68:72], uint32(o.Type))
	clear(dst[72:80])
	putFloat64(dst[80:88], o.Price)
	putFloat64(dst[88:96], o.Quantity)
	clear(dst[96:256])

	return dst
}

// DecodeOrder parses the payload of a full order frame.
func DecodeOrder(src []byte) (schema.Order, bool) {
	if len(src) < int(schema.OrderFrameSize) {
		return schema.Order{}, false
	}
	return schema.Order{
		Symbol:   GetSymbol(src[32:56]),
		OrderID:  binary.LittleEndian.Uint64(src[56:64]),
		Side:     schema.Side(binary.LittleEndian.Uint32(src[64:68])),
		Type:     schema.OrderType(binary.LittleEndian.Uint32(src[68:72])),
		Price:    getFloat64(src[80:88]),
		Quantity: getFloat64(src[88:96]),
	}, true
}
