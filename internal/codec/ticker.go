package codec

import (
	"main/internal/schema"
)

// EncodeTicker serializes a full ticker frame, header included. The header
// length and type are forced to the ticker frame layout.
func EncodeTicker(dst []byte, h schema.FrameHeader, tk schema.Ticker) []byte {
	size := int(schema.TickerFrameSize)
	if cap(dst) < size {
		dst = make([]byte, size)
	} else {
		dst = dst[:size]
	}

	h.Length = schema.TickerFrameSize
	h.Type = schema.MsgTicker
	putFrameHeader(dst[0:32], h)

	PutSymbol(dst[32:56], tk.Symbol)
	putFloat64(dst[56:64], tk.LastPrice)
	putFloat64(dst[64:72], tk.BidPrice)
	putFloat64(dst[72:80], tk.AskPrice)
	putFloat64(dst[80:88], tk.Volume)
	clear(dst[88:128])

	return dst
}

// DecodeTicker parses the payload of a full ticker frame.
func DecodeTicker(src []byte) (schema.Ticker, bool) {
	if len(src) < int(schema.TickerFrameSize) {
		return schema.Ticker{}, false
	}
	return schema.Ticker{
		Symbol:    GetSymbol(src[32:56]),
		LastPrice: getFloat64(src[56:64]),
		BidPrice:  getFloat64(src[64:72]),
		AskPrice:  getFloat64(src[72:80]),
		Volume:    getFloat64(src[80:88]),
	}, true
}
