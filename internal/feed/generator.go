package feed

import (
	"fmt"
	"math/rand"
	"time"

	"main/internal/schema"
)

// driftBand bounds the random walk: when the last price wanders more
// than driftBand spreads away from base, it snaps back to base.
const driftBand = 100

// SymbolSpec configures one synthetic instrument.
type SymbolSpec struct {
	Name       string
	BasePrice  float64
	Spread     float64
	BaseVolume float64
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Symbols    []SymbolSpec
	OrderEvery int
	Source     uint32
	Dest       uint32
	Seed       int64
}

// Generator creates synthetic market events: a round-robin ticker stream
// over the configured symbols with an order injected every OrderEvery
// ticks. Output is reproducible for a fixed Seed.
type Generator struct {
	instruments []instrument
	orderEvery  int
	source      uint32
	dest        uint32
	rng         *rand.Rand
	ids         *IDGenerator
	index       int
	ticks       uint64
}

type instrument struct {
	symbol schema.Symbol
	base   float64
	spread float64
	lot    float64
	last   float64
	volume float64
}

// NewGenerator creates a generator over the configured symbols.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("feed has no symbols")
	}
	instruments := make([]instrument, 0, len(cfg.Symbols))
	for _, spec := range cfg.Symbols {
		if spec.Name == "" {
			return nil, fmt.Errorf("feed symbol name empty")
		}
		if len(spec.Name) > schema.SymbolSize {
			return nil, fmt.Errorf("feed symbol %q longer than %d bytes", spec.Name, schema.SymbolSize)
		}
		if spec.BasePrice <= 0 {
			return nil, fmt.Errorf("feed symbol %q base price %v not positive", spec.Name, spec.BasePrice)
		}
		spread := spec.Spread
		if spread < 0 {
			spread = 0
		}
		lot := spec.BaseVolume
		if lot <= 0 {
			lot = 1
		}
		instruments = append(instruments, instrument{
			symbol: schema.NewSymbol(spec.Name),
			base:   spec.BasePrice,
			spread: spread,
			lot:    lot,
			last:   spec.BasePrice,
		})
	}
	if cfg.OrderEvery < 0 {
		cfg.OrderEvery = 0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		instruments: instruments,
		orderEvery:  cfg.OrderEvery,
		source:      cfg.Source,
		dest:        cfg.Dest,
		rng:         rand.New(rand.NewSource(seed)),
		ids:         NewIDGenerator(uint64(seed)),
	}, nil
}

// Next creates the next event in sequence.
func (g *Generator) Next(now time.Time) schema.Event {
	inst := &g.instruments[g.index]
	g.index = (g.index + 1) % len(g.instruments)
	g.ticks++

	step := (g.rng.Float64()*2 - 1) * inst.spread
	last := inst.last + step
	if last <= 0 || last < inst.base-driftBand*inst.spread || last > inst.base+driftBand*inst.spread {
		last = inst.base
	}
	inst.last = last
	inst.volume += inst.lot * (0.5 + g.rng.Float64())

	ts := uint64(now.UnixNano())
	if g.orderEvery > 0 && g.ticks%uint64(g.orderEvery) == 0 {
		return schema.OrderEvent(
			schema.NewHeader(schema.MsgOrder, ts, ts, g.source, g.dest),
			g.nextOrder(inst),
		)
	}
	return schema.TickerEvent(
		schema.NewHeader(schema.MsgTicker, ts, ts, g.source, g.dest),
		schema.Ticker{
			Symbol:    inst.symbol,
			LastPrice: inst.last,
			BidPrice:  inst.last - inst.spread,
			AskPrice:  inst.last + inst.spread,
			Volume:    inst.volume,
		},
	)
}

// Ticks returns how many events the generator has produced.
func (g *Generator) Ticks() uint64 {
	return g.ticks
}

func (g *Generator) nextOrder(inst *instrument) schema.Order {
	id := g.ids.Next()
	side := schema.SideBuy
	price := inst.last + inst.spread
	if id%2 == 0 {
		side = schema.SideSell
		price = inst.last - inst.spread
	}
	orderType := schema.OrderTypeLimit
	if id%4 == 0 {
		orderType = schema.OrderTypeMarket
	}
	return schema.Order{
		Symbol:   inst.symbol,
		OrderID:  id,
		Side:     side,
		Type:     orderType,
		Price:    price,
		Quantity: inst.lot * (0.25 + g.rng.Float64()),
	}
}
