package access

import (
	"context"
	"time"

	"github.com/vidgate/backend/internal/models"
)

// VideoReader exposes the content-store lookup the access path depends on.
// Implementations must hit the store on every call; visibility is never
// cached across requests. A missing record is reported with an error matching
// repositories.ErrNotFound.
type VideoReader interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// TokenStore is the persistence contract for share tokens. Consume is the
// only operation that may increment ViewCount, and Revoke the only one that
// may set Revoked.
type TokenStore interface {
	Create(ctx context.Context, token models.ShareToken) error
	FindByID(ctx context.Context, id string) (models.ShareToken, error)
	ListForVideo(ctx context.Context, videoID string) ([]models.ShareToken, error)

	// Consume atomically checks revocation, expiry and quota and increments
	// the view count in a single store-side conditional update. The returned
	// error is non-nil only for infrastructure failures; refusals come back
	// as non-valid outcomes.
	Consume(ctx context.Context, token, videoID string) (models.TokenOutcome, models.ShareToken, error)

	// Revoke marks the token revoked. Revoking an already-revoked token
	// succeeds; a missing token reports repositories.ErrNotFound.
	Revoke(ctx context.Context, id string) error

	// DeleteExpired removes up to limit rows whose expiry has passed and
	// reports how many were deleted.
	DeleteExpired(ctx context.Context, olderThan time.Time, limit int) (int64, error)
}

// LogStore persists access-log entries. Append-only; never consulted on the
// decision path.
type LogStore interface {
	Insert(ctx context.Context, entry models.AccessLogEntry) error
}

// Logger records access attempts without ever blocking or failing the
// decision that produced them.
type Logger interface {
	Log(entry models.AccessLogEntry)
}
