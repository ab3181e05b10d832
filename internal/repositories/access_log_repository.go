package repositories

import (
	"context"
	"time"

	"github.com/vidgate/backend/internal/models"
)

// AccessLogRepository exposes the append-only audit log. ListOlderThan and
// DeleteBatch exist for the archiver only; nothing on the decision path reads
// log rows.
type AccessLogRepository interface {
	Insert(ctx context.Context, entry models.AccessLogEntry) error
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.AccessLogEntry, error)
	DeleteBatch(ctx context.Context, ids []string) error
}
