package repositories

import (
	"context"
	"time"

	"github.com/vidgate/backend/internal/models"
)

// ShareTokenRepository defines data access for share tokens. Consume is the
// single write path for view counts: the quota, expiry and revocation
// predicates are re-asserted inside one conditional UPDATE so concurrent
// consumers can never push view_count past max_views.
type ShareTokenRepository interface {
	Create(ctx context.Context, token models.ShareToken) error
	FindByID(ctx context.Context, id string) (models.ShareToken, error)
	ListForVideo(ctx context.Context, videoID string) ([]models.ShareToken, error)
	Consume(ctx context.Context, token, videoID string) (models.TokenOutcome, models.ShareToken, error)
	Revoke(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, olderThan time.Time, limit int) (int64, error)
}
