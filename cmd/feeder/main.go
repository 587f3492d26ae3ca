package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/feed"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	path := flag.String("path", "", "Journal file path (overrides config)")
	capacity := flag.Int64("capacity", 0, "Initial journal capacity in bytes (overrides config)")
	resume := flag.Bool("resume", false, "Resume an existing journal instead of creating one")
	count := flag.Uint64("count", 0, "Events to publish (0=until interrupted)")
	rate := flag.Int("rate", 0, "Events per second (overrides config)")
	orderEvery := flag.Int("order-every", -1, "Publish an order every N ticks (0=tickers only, -1=config value)")
	seed := flag.Int64("seed", 0, "Feed RNG seed (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (empty=disabled)")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *path != "" {
		loaded.Journal.Path = *path
	}
	if *capacity > 0 {
		loaded.Journal.Capacity = *capacity
	}
	if *rate > 0 {
		loaded.Feed.RatePerSec = *rate
	}
	if *orderEvery >= 0 {
		loaded.Feed.Generator.OrderEvery = *orderEvery
	}
	if *seed != 0 {
		loaded.Feed.Generator.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	generator, err := feed.NewGenerator(loaded.Feed.Generator)
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	metrics := obs.NewMetrics()
	writer, err := openWriter(loaded.Journal, *resume, metrics)
	if err != nil {
		log.Fatalf("journal init failed: %v", err)
	}
	log.Printf("journal ready: path=%s capacity=%d cursor=%d", writer.Path(), writer.Capacity(), writer.Cursor())

	queue := bus.NewQueue(1024)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(context.Background(), func(ev schema.Event) {
			if err := writer.Append(ev); err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			metrics.ObserveFrame(ev.Header.Type, ev.Header.Length,
				time.Duration(time.Now().UnixNano()-int64(ev.Header.GenTime)))
		})
	}()

	interval := paceInterval(loaded.Feed.RatePerSec)
	published := uint64(0)
	var appendErr error

loop:
	for *count == 0 || published < *count {
		select {
		case <-ctx.Done():
			break loop
		case <-sys.Shutdown():
			break loop
		case appendErr = <-errCh:
			break loop
		default:
		}
		ev := generator.Next(time.Now().UTC())
		if err := queue.TryPublish(ev); err != nil {
			if errors.Is(err, bus.ErrQueueFull) {
				time.Sleep(time.Millisecond)
				continue
			}
			appendErr = err
			break loop
		}
		published++
		if interval > 0 {
			time.Sleep(interval)
		}
	}

	queue.Close()
	wg.Wait()

	if appendErr == nil {
		select {
		case appendErr = <-errCh:
		default:
		}
	}

	if err := writer.Close(); err != nil {
		log.Fatalf("journal close failed: %v", err)
	}
	if appendErr != nil {
		log.Fatalf("journal append failed: %v", appendErr)
	}

	snapshot := metrics.Snapshot()
	log.Printf("feeder done: published=%d frames=%d cursor=%d dropped=%d grows=%d bytes=%d append_latency=%+v",
		published, writer.Frames(), writer.Cursor(), queue.Dropped(), snapshot.Grows, snapshot.Bytes, snapshot.FrameLatency)
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

func openWriter(spec ops.JournalSpec, resume bool, metrics *obs.Metrics) (*journal.Writer, error) {
	opts := journal.WriterOptions{
		Capacity: spec.Capacity,
		OnAppend: func(msgType schema.MsgType, size uint32) {
			obs.WriterFramesTotal.WithLabelValues(msgType.String()).Inc()
		},
		OnGrow: func(size int64) {
			metrics.IncGrow()
			obs.WriterGrowsTotal.Inc()
			log.Printf("journal grew: %d bytes", size)
		},
	}
	if resume || spec.Resume {
		return journal.Resume(spec.Path, opts)
	}
	return journal.Create(spec.Path, opts)
}

func paceInterval(ratePerSec int) time.Duration {
	if ratePerSec <= 0 {
		return 0
	}
	return time.Second / time.Duration(ratePerSec)
}
