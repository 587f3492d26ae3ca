package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yanun0323/decimal"

	"main/internal/feed"
	"main/internal/schema"
)

const (
	defaultJournalPath = "journal.bin"
	defaultRatePerSec  = 10000
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Journal JournalConfig `json:"journal"`
	Feed    FeedConfig    `json:"feed"`
	Reader  ReaderConfig  `json:"reader"`
}

// JournalConfig locates the journal file.
type JournalConfig struct {
	Path          string `json:"path"`
	CapacityBytes int64  `json:"capacityBytes"`
	Resume        bool   `json:"resume"`
}

// FeedConfig describes the synthetic feed.
type FeedConfig struct {
	RatePerSec int            `json:"ratePerSec"`
	OrderEvery int            `json:"orderEvery"`
	Source     uint32         `json:"source"`
	Dest       uint32         `json:"dest"`
	Seed       int64          `json:"seed"`
	Symbols    []SymbolConfig `json:"symbols"`
}

// SymbolConfig describes one feed instrument. Prices are decimal strings
// so config files round-trip without float noise.
type SymbolConfig struct {
	Name       string          `json:"name"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	Spread     decimal.Decimal `json:"spread"`
	BaseVolume decimal.Decimal `json:"baseVolume"`
}

// ReaderConfig tunes the journal consumer.
type ReaderConfig struct {
	SpinThreshold uint64 `json:"spinThreshold"`
	WindowSize    int    `json:"windowSize"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Journal JournalSpec
	Feed    FeedSpec
	Reader  ReaderSpec
}

// JournalSpec is the resolved journal definition. A zero Capacity means
// the writer default.
type JournalSpec struct {
	Path     string
	Capacity int64
	Resume   bool
}

// FeedSpec is the resolved feed definition.
type FeedSpec struct {
	RatePerSec int
	Generator  feed.GeneratorConfig
}

// ReaderSpec is the resolved reader definition. Zero values mean the
// reader defaults.
type ReaderSpec struct {
	SpinThreshold uint64
	WindowSize    int
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	journal, err := resolveJournal(cfg.Journal)
	if err != nil {
		return Loaded{}, err
	}
	feedSpec, err := resolveFeed(cfg.Feed)
	if err != nil {
		return Loaded{}, err
	}
	reader, err := resolveReader(cfg.Reader)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Journal: journal,
		Feed:    feedSpec,
		Reader:  reader,
	}, nil
}

// Default returns the configuration used when no config file is given.
func Default() Loaded {
	journal, _ := resolveJournal(JournalConfig{})
	feedSpec, _ := resolveFeed(FeedConfig{})
	reader, _ := resolveReader(ReaderConfig{})
	return Loaded{Journal: journal, Feed: feedSpec, Reader: reader}
}

func resolveJournal(cfg JournalConfig) (JournalSpec, error) {
	if cfg.CapacityBytes < 0 {
		return JournalSpec{}, fmt.Errorf("journal capacityBytes must be >= 0")
	}
	path := cfg.Path
	if path == "" {
		path = defaultJournalPath
	}
	return JournalSpec{
		Path:     path,
		Capacity: cfg.CapacityBytes,
		Resume:   cfg.Resume,
	}, nil
}

func resolveFeed(cfg FeedConfig) (FeedSpec, error) {
	if cfg.RatePerSec < 0 {
		return FeedSpec{}, fmt.Errorf("feed ratePerSec must be >= 0")
	}
	rate := cfg.RatePerSec
	if rate == 0 {
		rate = defaultRatePerSec
	}
	if cfg.OrderEvery < 0 {
		return FeedSpec{}, fmt.Errorf("feed orderEvery must be >= 0")
	}
	symbols := make([]feed.SymbolSpec, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		if sym.Name == "" {
			return FeedSpec{}, fmt.Errorf("feed symbol name is empty")
		}
		if len(sym.Name) > schema.SymbolSize {
			return FeedSpec{}, fmt.Errorf("feed symbol %s longer than %d bytes", sym.Name, schema.SymbolSize)
		}
		base, err := decimalFloat(sym.BasePrice)
		if err != nil {
			return FeedSpec{}, fmt.Errorf("feed symbol %s basePrice: %w", sym.Name, err)
		}
		if base <= 0 {
			return FeedSpec{}, fmt.Errorf("feed symbol %s basePrice must be > 0", sym.Name)
		}
		spread, err := decimalFloat(sym.Spread)
		if err != nil {
			return FeedSpec{}, fmt.Errorf("feed symbol %s spread: %w", sym.Name, err)
		}
		volume, err := decimalFloat(sym.BaseVolume)
		if err != nil {
			return FeedSpec{}, fmt.Errorf("feed symbol %s baseVolume: %w", sym.Name, err)
		}
		symbols = append(symbols, feed.SymbolSpec{
			Name:       sym.Name,
			BasePrice:  base,
			Spread:     spread,
			BaseVolume: volume,
		})
	}
	if len(symbols) == 0 {
		symbols = defaultSymbols()
	}
	return FeedSpec{
		RatePerSec: rate,
		Generator: feed.GeneratorConfig{
			Symbols:    symbols,
			OrderEvery: cfg.OrderEvery,
			Source:     cfg.Source,
			Dest:       cfg.Dest,
			Seed:       cfg.Seed,
		},
	}, nil
}

func resolveReader(cfg ReaderConfig) (ReaderSpec, error) {
	if cfg.WindowSize < 0 {
		return ReaderSpec{}, fmt.Errorf("reader windowSize must be >= 0")
	}
	return ReaderSpec{
		SpinThreshold: cfg.SpinThreshold,
		WindowSize:    cfg.WindowSize,
	}, nil
}

func defaultSymbols() []feed.SymbolSpec {
	return []feed.SymbolSpec{
		{Name: "BTC-USDT", BasePrice: 50000, Spread: 0.5, BaseVolume: 0.1},
		{Name: "ETH-USDT", BasePrice: 3000, Spread: 0.05, BaseVolume: 1},
	}
}

// decimalFloat resolves a JSON decimal field to float64. An absent field
// resolves to zero.
func decimalFloat(d decimal.Decimal) (float64, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return 0, err
	}
	text := strings.Trim(string(raw), `"`)
	if text == "" || text == "null" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", text, err)
	}
	return f, nil
}
