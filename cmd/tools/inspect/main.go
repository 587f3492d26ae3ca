package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"main/internal/codec"
	"main/internal/journal"
	"main/internal/schema"
)

func main() {
	path := flag.String("path", "journal.bin", "Journal file path")
	decode := flag.Bool("decode", false, "Decode known frame types")
	limit := flag.Int("limit", 0, "Stop after N frames (0=all)")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read journal failed: %v", err)
	}
	if len(data) < journal.PageHeaderSize {
		log.Fatalf("journal too small: %d bytes", len(data))
	}
	cursor := binary.LittleEndian.Uint32(data[0:4])
	if cursor < journal.PageHeaderSize || int(cursor) > len(data) {
		log.Fatalf("corrupt page header: cursor=%d size=%d", cursor, len(data))
	}

	registry := schema.DefaultRegistry()
	counts := make(map[schema.MsgType]int)
	var frames int
	offset := uint32(journal.PageHeaderSize)
	for offset < cursor {
		header, ok := codec.DecodeFrameHeader(data[offset:cursor])
		if !ok {
			log.Fatalf("truncated frame header at offset %d", offset)
		}
		size, ok := registry.FrameSize(header.Type)
		if !ok {
			log.Fatalf("unknown msg type %d at offset %d", header.Type, offset)
		}
		if header.Length != size {
			log.Fatalf("frame size mismatch at offset %d: embedded=%d registry=%d", offset, header.Length, size)
		}
		if cursor-offset < size {
			log.Fatalf("frame at offset %d passes cursor %d", offset, cursor)
		}
		frames++
		counts[header.Type]++
		fmt.Printf("%06d off=%d type=%s len=%d gen=%d trig=%d src=%d dst=%d\n",
			frames, offset, header.Type, header.Length, header.GenTime, header.TriggerTime, header.Source, header.Dest)
		if *decode {
			printDecoded(header.Type, data[offset:offset+size])
		}
		offset += size
		if *limit > 0 && frames >= *limit {
			break
		}
	}
	fmt.Printf("journal ok: frames=%d tickers=%d orders=%d cursor=%d size=%d\n",
		frames, counts[schema.MsgTicker], counts[schema.MsgOrder], cursor, len(data))
}

func printDecoded(t schema.MsgType, frame []byte) {
	switch t {
	case schema.MsgTicker:
		tk, ok := codec.DecodeTicker(frame)
		if !ok {
			fmt.Println("  decode ticker failed")
			return
		}
		fmt.Printf("  ticker %s last=%.8f bid=%.8f ask=%.8f vol=%.8f\n",
			tk.Symbol.String(), tk.LastPrice, tk.BidPrice, tk.AskPrice, tk.Volume)
	case schema.MsgOrder:
		o, ok := codec.DecodeOrder(frame)
		if !ok {
			fmt.Println("  decode order failed")
			return
		}
		fmt.Printf("  order %s id=%d side=%s type=%s price=%.8f qty=%.8f\n",
			o.Symbol.String(), o.OrderID, o.Side, o.Type, o.Price, o.Quantity)
	}
}
