package access

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vidgate/backend/internal/models"
)

// AsyncLoggerConfig controls the queue and worker-pool characteristics of the
// audit logger.
type AsyncLoggerConfig struct {
	QueueSize int
	Workers   int
}

// AsyncLogger writes access-log entries through a bounded queue so a slow or
// failing log store can never add latency or failure to an access decision.
// When the queue is full the entry is dropped and a throttled error record is
// emitted.
type AsyncLogger struct {
	store  LogStore
	logger *slog.Logger

	entries  chan models.AccessLogEntry
	dropWarn *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAsyncLogger starts the worker pool that drains entries into the store.
func NewAsyncLogger(store LogStore, cfg AsyncLoggerConfig, logger *slog.Logger) *AsyncLogger {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	l := &AsyncLogger{
		store:    store,
		logger:   logger,
		entries:  make(chan models.AccessLogEntry, cfg.QueueSize),
		dropWarn: rate.NewLimiter(rate.Every(10*time.Second), 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	l.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go l.worker()
	}

	return l
}

// Log enqueues the entry without blocking. A full queue drops the newest
// entry; the audit trail is best-effort and must never stall the caller.
func (l *AsyncLogger) Log(entry models.AccessLogEntry) {
	select {
	case <-l.ctx.Done():
		return
	default:
	}

	select {
	case l.entries <- entry:
	default:
		if l.dropWarn.Allow() {
			l.logger.Error("access log queue full, dropping entries", "videoId", entry.VideoID)
		}
	}
}

// Shutdown stops intake and waits for queued entries to drain.
func (l *AsyncLogger) Shutdown(ctx context.Context) error {
	l.once.Do(func() {
		l.cancel()
		close(l.entries)
	})

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (l *AsyncLogger) worker() {
	defer l.wg.Done()

	for entry := range l.entries {
		l.write(entry)
	}
}

func (l *AsyncLogger) write(entry models.AccessLogEntry) {
	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// One error record, no retries. Log failures never propagate.
	if err := l.store.Insert(ctx, entry); err != nil {
		l.logger.Error("write access log entry", "videoId", entry.VideoID, "error", err)
	}
}
