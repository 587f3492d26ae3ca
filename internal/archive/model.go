package archive

import (
	"time"

	"main/internal/schema"
)

// TickerRow is the relational form of a ticker frame.
type TickerRow struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Symbol    string    `gorm:"column:symbol;size:24;index"`
	LastPrice float64   `gorm:"column:last_price"`
	BidPrice  float64   `gorm:"column:bid_price"`
	AskPrice  float64   `gorm:"column:ask_price"`
	Volume    float64   `gorm:"column:volume"`
	GenTime   time.Time `gorm:"column:gen_time;index"`
	Source    uint32    `gorm:"column:source"`
	Dest      uint32    `gorm:"column:dest"`
}

// TableName implements the gorm table naming hook.
func (TickerRow) TableName() string {
	return "journal_tickers"
}

// OrderRow is the relational form of an order frame.
type OrderRow struct {
	ID       uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID  uint64    `gorm:"column:order_id;index"`
	Symbol   string    `gorm:"column:symbol;size:24;index"`
	Side     string    `gorm:"column:side;size:8"`
	Type     string    `gorm:"column:type;size:8"`
	Price    float64   `gorm:"column:price"`
	Quantity float64   `gorm:"column:quantity"`
	GenTime  time.Time `gorm:"column:gen_time;index"`
	Source   uint32    `gorm:"column:source"`
	Dest     uint32    `gorm:"column:dest"`
}

// TableName implements the gorm table naming hook.
func (OrderRow) TableName() string {
	return "journal_orders"
}

// FromTicker converts a decoded ticker frame into a row.
func FromTicker(h schema.FrameHeader, tk schema.Ticker) TickerRow {
	return TickerRow{
		Symbol:    tk.Symbol.String(),
		LastPrice: tk.LastPrice,
		BidPrice:  tk.BidPrice,
		AskPrice:  tk.AskPrice,
		Volume:    tk.Volume,
		GenTime:   time.Unix(0, int64(h.GenTime)),
		Source:    h.Source,
		Dest:      h.Dest,
	}
}

// FromOrder converts a decoded order frame into a row.
func FromOrder(h schema.FrameHeader, o schema.Order) OrderRow {
	return OrderRow{
		OrderID:  o.OrderID,
		Symbol:   o.Symbol.String(),
		Side:     o.Side.String(),
		Type:     o.Type.String(),
		Price:    o.Price,
		Quantity: o.Quantity,
		GenTime:  time.Unix(0, int64(h.GenTime)),
		Source:   h.Source,
		Dest:     h.Dest,
	}
}
