package archive

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"main/internal/schema"
)

func TestFromTicker(t *testing.T) {
	h := schema.NewHeader(schema.MsgTicker, 1700000000000000000, 1700000000000000100, 3, 4)
	tk := schema.Ticker{
		Symbol:    schema.NewSymbol("BTC-USDT"),
		LastPrice: 50000.0,
		BidPrice:  49999.5,
		AskPrice:  50000.5,
		Volume:    12.3,
	}

	row := FromTicker(h, tk)
	if row.Symbol != "BTC-USDT" {
		t.Fatalf("symbol: %q", row.Symbol)
	}
	if row.LastPrice != 50000.0 || row.BidPrice != 49999.5 || row.AskPrice != 50000.5 || row.Volume != 12.3 {
		t.Fatalf("prices: %+v", row)
	}
	if !row.GenTime.Equal(time.Unix(0, 1700000000000000000)) {
		t.Fatalf("gen time: %v", row.GenTime)
	}
	if row.Source != 3 || row.Dest != 4 {
		t.Fatalf("source/dest: %d/%d", row.Source, row.Dest)
	}
}

func TestFromOrder(t *testing.T) {
	h := schema.NewHeader(schema.MsgOrder, 1700000000000000000, 1700000000000000000, 1, 2)
	o := schema.Order{
		Symbol:   schema.NewSymbol("ETH-USDT"),
		OrderID:  42,
		Side:     schema.SideSell,
		Type:     schema.OrderTypeMarket,
		Price:    3000.25,
		Quantity: 1.5,
	}

	row := FromOrder(h, o)
	if row.OrderID != 42 || row.Symbol != "ETH-USDT" {
		t.Fatalf("identity: %+v", row)
	}
	if row.Side != "sell" || row.Type != "market" {
		t.Fatalf("side/type: %q/%q", row.Side, row.Type)
	}
	if row.Price != 3000.25 || row.Quantity != 1.5 {
		t.Fatalf("price/qty: %v/%v", row.Price, row.Quantity)
	}
}

func TestTableNames(t *testing.T) {
	if got := (TickerRow{}).TableName(); got != "journal_tickers" {
		t.Fatalf("ticker table: %q", got)
	}
	if got := (OrderRow{}).TableName(); got != "journal_orders" {
		t.Fatalf("order table: %q", got)
	}
}

func TestSinkBuffers(t *testing.T) {
	s, err := NewSink(&gorm.DB{}, SinkOptions{BatchSize: 10})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	h := schema.NewHeader(schema.MsgTicker, 1, 1, 0, 0)
	for i := 0; i < 3; i++ {
		if err := s.Enqueue(schema.TickerEvent(h, schema.Ticker{Symbol: schema.NewSymbol("BTC-USDT")})); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := s.Enqueue(schema.OrderEvent(schema.NewHeader(schema.MsgOrder, 1, 1, 0, 0), schema.Order{OrderID: 1})); err != nil {
		t.Fatalf("enqueue order: %v", err)
	}
	if err := s.Enqueue(schema.Event{Header: h}); err != nil {
		t.Fatalf("enqueue empty: %v", err)
	}

	if got := s.Pending(); got != 4 {
		t.Fatalf("pending: %d", got)
	}
	if got := s.Written(); got != 0 {
		t.Fatalf("written before flush: %d", got)
	}
	if got := s.Skipped(); got != 1 {
		t.Fatalf("skipped: %d", got)
	}
}

func TestSinkRequiresDB(t *testing.T) {
	if _, err := NewSink(nil, SinkOptions{}); err == nil {
		t.Fatalf("no error for nil db")
	}
}
