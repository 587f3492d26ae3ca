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

	"main/internal/archive"
	"main/internal/bus"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	path := flag.String("path", "", "Journal file path (overrides config)")
	spin := flag.Uint64("spin", 0, "Empty polls before backing off (overrides config)")
	maxEvents := flag.Uint64("max-events", 0, "Stop after N events (0=until interrupted)")
	queueCap := flag.Int("queue", 4096, "Event queue capacity")
	batch := flag.Int("batch", 0, "Rows per insert batch")
	flushevery := flag.Duration("flush-interval", time.Second, "Partial batch flush interval")
	pgHost := flag.String("pg-host", "", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 0, "PostgreSQL port")
	pgUser := flag.String("pg-user", "", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDB := flag.String("pg-db", "", "PostgreSQL database")
	pgSSLMode := flag.String("pg-sslmode", "", "PostgreSQL sslmode")
	pgConn := flag.String("pg-conn", "", "PostgreSQL connection string (overrides pg-* flags)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (empty=disabled)")
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

	client, err := conn.New(conn.Option{
		Host:       *pgHost,
		Port:       *pgPort,
		User:       *pgUser,
		Password:   *pgPassword,
		Database:   *pgDB,
		SSLMode:    *pgSSLMode,
		ConnString: *pgConn,
	})
	if err != nil {
		log.Fatalf("postgres connect failed: %v", err)
	}
	defer client.Close()
	if err := client.Ping(ctx); err != nil {
		log.Fatalf("postgres ping failed: %v", err)
	}

	sink, err := archive.NewSink(client.DB(), archive.SinkOptions{BatchSize: *batch})
	if err != nil {
		log.Fatalf("sink init failed: %v", err)
	}
	if err := sink.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	reader, err := journal.Open(ctx, loaded.Journal.Path, journal.ReaderOptions{
		SpinThreshold: loaded.Reader.SpinThreshold,
		OnFrame: func(msgType schema.MsgType, size uint32) {
			obs.ReaderFramesTotal.WithLabelValues(msgType.String()).Inc()
			obs.ReaderBytesTotal.Add(float64(size))
		},
		OnRemap: func(size int64) {
			obs.ReaderRemapsTotal.Inc()
		},
	})
	if err != nil {
		log.Fatalf("journal open failed: %v", err)
	}
	defer reader.Close()
	log.Printf("archiving journal: path=%s", loaded.Journal.Path)

	stopFlusher := sink.StartFlusher(ctx, *flushevery)

	queue := bus.NewQueue(*queueCap)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(context.Background(), func(ev schema.Event) {
			if err := sink.Enqueue(ev); err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		})
	}()

	publish := func(ev schema.Event) error {
		for {
			err := queue.TryPublish(ev)
			if err == nil {
				return nil
			}
			if !errors.Is(err, bus.ErrQueueFull) {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}
	}
	handlers := journal.Handlers{
		OnTicker: func(h schema.FrameHeader, tk schema.Ticker) error {
			return publish(schema.TickerEvent(h, tk))
		},
		OnOrder: func(h schema.FrameHeader, o schema.Order) error {
			return publish(schema.OrderEvent(h, o))
		},
	}

	runErr := reader.Run(ctx, handlers, *maxEvents)

	queue.Close()
	wg.Wait()
	stopFlusher()

	var sinkErr error
	select {
	case sinkErr = <-errCh:
	default:
	}
	if sinkErr == nil {
		sinkErr = sink.Flush()
	}

	// Counters are reported on every exit path, including failures.
	log.Printf("archiver done: written=%d skipped=%d dropped=%d cursor=%d",
		sink.Written(), sink.Skipped(), queue.Dropped(), reader.LocalCursor())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("journal follow failed: %v", runErr)
	}
	if sinkErr != nil {
		log.Fatalf("archive write failed: %v", sinkErr)
	}
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}
