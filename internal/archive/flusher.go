package archive

import (
	"context"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const defaultFlushInterval = time.Second

// StartFlusher periodically flushes partial batches until the context is
// done or the process is shutting down. The returned stop func blocks
// until the flusher exits.
func (s *Sink) StartFlusher(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Flush(); err != nil {
					logs.Errorf("flush archive, err: %+v", err)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
