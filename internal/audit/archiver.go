package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

const archiveBatchSize = 1000

// ArchiveStorage is the object-store sink receiving exported log batches.
type ArchiveStorage interface {
	Save(ctx context.Context, name string, r io.Reader) error
}

// ArchiverConfig controls retention and cadence of the log archiver.
type ArchiverConfig struct {
	Retention time.Duration
	Interval  time.Duration
}

// Archiver exports access-log rows older than the retention window to object
// storage as JSON-lines batches and deletes them afterwards. Rows are only
// deleted once their batch upload succeeded, so a failed export is retried on
// the next cycle rather than lost.
type Archiver struct {
	logs    repositories.AccessLogRepository
	storage ArchiveStorage
	cfg     ArchiverConfig
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewArchiver constructs an archiver.
func NewArchiver(logs repositories.AccessLogRepository, storage ArchiveStorage, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{logs: logs, storage: storage, cfg: cfg, logger: logger}
}

// Run blocks until the context is cancelled, archiving once per interval.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.ArchiveOnce(ctx); err != nil {
				a.logger.Error("archive access logs", "error", err)
			}
		}
	}
}

// ArchiveOnce exports every batch currently past the retention cutoff.
func (a *Archiver) ArchiveOnce(ctx context.Context) error {
	cutoff := a.now().Add(-a.cfg.Retention)

	for {
		entries, err := a.logs.ListOlderThan(ctx, cutoff, archiveBatchSize)
		if err != nil {
			return fmt.Errorf("list aged access logs: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}

		if err := a.exportBatch(ctx, entries); err != nil {
			return err
		}

		if len(entries) < archiveBatchSize {
			return nil
		}
	}
}

func (a *Archiver) exportBatch(ctx context.Context, entries []models.AccessLogEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := enc.Encode(archiveRecord(entry)); err != nil {
			return fmt.Errorf("encode access log entry %s: %w", entry.ID, err)
		}
		ids = append(ids, entry.ID)
	}

	key := fmt.Sprintf("access-logs/%s/%s.jsonl",
		entries[0].CreatedAt.UTC().Format("2006/01/02"),
		entries[0].ID)

	if err := a.storage.Save(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("upload access log archive: %w", err)
	}

	if err := a.logs.DeleteBatch(ctx, ids); err != nil {
		return fmt.Errorf("delete archived access logs: %w", err)
	}

	a.logger.Info("archived access logs", "count", len(ids), "key", key)
	return nil
}

func (a *Archiver) now() time.Time {
	if a.nowFunc != nil {
		return a.nowFunc()
	}
	return time.Now().UTC()
}

type archiveEntry struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"videoId"`
	ViewerIdentity string    `json:"viewerIdentity,omitempty"`
	Method         string    `json:"method"`
	ShareTokenID   string    `json:"shareTokenId,omitempty"`
	ClientAddress  string    `json:"clientAddress,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
	Referrer       string    `json:"referrer,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func archiveRecord(entry models.AccessLogEntry) archiveEntry {
	return archiveEntry{
		ID:             entry.ID,
		VideoID:        entry.VideoID,
		ViewerIdentity: entry.ViewerIdentity,
		Method:         entry.Method,
		ShareTokenID:   entry.ShareTokenID,
		ClientAddress:  entry.ClientAddress,
		UserAgent:      entry.UserAgent,
		Referrer:       entry.Referrer,
		CreatedAt:      entry.CreatedAt,
	}
}
