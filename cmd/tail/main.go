package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	path := flag.String("path", "", "Journal file path (overrides config)")
	spin := flag.Uint64("spin", 0, "Empty polls before backing off (overrides config)")
	maxEvents := flag.Uint64("max-events", 0, "Stop after N events (0=until interrupted)")
	window := flag.Int("window", 0, "Telemetry window size in events (overrides config)")
	quiet := flag.Bool("quiet", false, "Suppress per-event output")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (empty=disabled)")
	pyroscopeAddr := flag.String("pyroscope-addr", "", "Pyroscope server address (empty=disabled)")
	memStats := flag.Bool("memstats", false, "Report runtime memory stats")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *path != "" {
		loaded.Journal.Path = *path
	}
	if *spin > 0 {
		loaded.Reader.SpinThreshold = *spin
	}
	if *window > 0 {
		loaded.Reader.WindowSize = *window
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "journal/tail",
			ServerAddress:   *pyroscopeAddr,
			Tags: map[string]string{
				"env": "local",
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	if *memStats {
		reporter := &obs.MemReporter{}
		go reporter.Run(ctx, 15*time.Second)
	}

	reader, err := journal.Open(ctx, loaded.Journal.Path, journal.ReaderOptions{
		SpinThreshold: loaded.Reader.SpinThreshold,
		OnFrame: func(msgType schema.MsgType, size uint32) {
			obs.ReaderFramesTotal.WithLabelValues(msgType.String()).Inc()
			obs.ReaderBytesTotal.Add(float64(size))
		},
		OnRemap: func(size int64) {
			obs.ReaderRemapsTotal.Inc()
			log.Printf("journal remapped: %d bytes", size)
		},
	})
	if err != nil {
		log.Fatalf("journal open failed: %v", err)
	}
	defer reader.Close()
	log.Printf("following journal: path=%s cursor=%d", loaded.Journal.Path, reader.LocalCursor())

	windowStats := obs.NewWindowStats(loaded.Reader.WindowSize, func(r obs.WindowReport) {
		log.Printf("window: events=%d avg=%v min=%v max=%v rate=%.0f/s",
			r.Events, r.Avg, r.Min, r.Max, r.EventsPerSec)
	})
	latencyStats := &obs.LatencyStats{}

	observe := func(h schema.FrameHeader) time.Duration {
		latency := time.Duration(time.Now().UnixNano() - int64(h.GenTime))
		windowStats.Observe(latency)
		latencyStats.Observe(latency)
		obs.ReaderLatency.Observe(float64(latency))
		return latency
	}
	handlers := journal.Handlers{
		OnTicker: func(h schema.FrameHeader, tk schema.Ticker) error {
			latency := observe(h)
			if !*quiet {
				log.Printf("ticker %s last=%.4f bid=%.4f ask=%.4f vol=%.4f latency=%v",
					tk.Symbol.String(), tk.LastPrice, tk.BidPrice, tk.AskPrice, tk.Volume, latency)
			}
			return nil
		},
		OnOrder: func(h schema.FrameHeader, o schema.Order) error {
			latency := observe(h)
			if !*quiet {
				log.Printf("order %s id=%d side=%s type=%s px=%.4f qty=%.4f latency=%v",
					o.Symbol.String(), o.OrderID, o.Side, o.Type, o.Price, o.Quantity, latency)
			}
			return nil
		},
	}

	runErr := reader.Run(ctx, handlers, *maxEvents)
	if err := finishRun(runErr, latencyStats, reader.LocalCursor(), windowStats.Pending()); err != nil {
		log.Fatalf("journal follow failed: %v", err)
	}
}

// finishRun logs the whole-run latency snapshot and the final reader
// position, then maps the run error to an exit decision. Telemetry is
// reported on every exit path, including fatal decode errors. A canceled
// context is a clean stop.
func finishRun(runErr error, stats *obs.LatencyStats, cursor uint32, pending uint64) error {
	snap := stats.Snapshot()
	log.Printf("tail done: cursor=%d events=%d avg=%v min=%v max=%v pending_window=%d",
		cursor, snap.Count, snap.Avg, snap.Min, snap.Max, pending)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
