package schema

// MsgType identifies the kind of frame stored in the journal.
// Values are part of the wire format and must never be renumbered.
type MsgType uint32

const (
	MsgUnknown MsgType = 0
	MsgTicker  MsgType = 1
	MsgOrder   MsgType = 2
)

// String returns a short name for logs and metric labels.
func (t MsgType) String() string {
	switch t {
	case MsgTicker:
		return "ticker"
	case MsgOrder:
		return "order"
	default:
		return "unknown"
	}
}

// Side describes order direction.
type Side uint32

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// String returns a short name for logs and archive rows.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderType describes order type.
type OrderType uint32

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
)

// String returns a short name for logs and archive rows.
func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "limit"
	case OrderTypeMarket:
		return "market"
	default:
		return "unknown"
	}
}

// FrameHeader is the common metadata at the start of every frame.
type FrameHeader struct {
	Length      uint32
	Type        MsgType
	GenTime     uint64
	TriggerTime uint64
	Source      uint32
	Dest        uint32
}

// NewHeader builds a header with the default frame length for the type.
func NewHeader(msgType MsgType, genTime, triggerTime uint64, source, dest uint32) FrameHeader {
	return FrameHeader{
		Length:      defaultFrameSize(msgType),
		Type:        msgType,
		GenTime:     genTime,
		TriggerTime: triggerTime,
		Source:      source,
		Dest:        dest,
	}
}

// Ticker is the payload of a MsgTicker frame.
type Ticker struct {
	Symbol    Symbol
	LastPrice float64
	BidPrice  float64
	AskPrice  float64
	Volume    float64
}

// Order is the payload of a MsgOrder frame.
type Order struct {
	Symbol   Symbol
	OrderID  uint64
	Side     Side
	Type     OrderType
	Price    float64
	Quantity float64
}

// Event is a decoded frame ready for dispatch. Exactly one payload
// pointer is set, matching Header.Type.
type Event struct {
	Header FrameHeader
	Ticker *Ticker
	Order  *Order
}

// TickerEvent wraps a ticker payload as an event.
func TickerEvent(h FrameHeader, t Ticker) Event {
	return Event{Header: h, Ticker: &t}
}

// OrderEvent wraps an order payload as an event.
func OrderEvent(h FrameHeader, o Order) Event {
	return Event{Header: h, Order: &o}
}
