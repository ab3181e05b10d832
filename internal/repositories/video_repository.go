package repositories

import (
	"context"

	"github.com/vidgate/backend/internal/models"
)

// VideoRepository exposes data access for video records. The access subsystem
// only ever reads through FindByID; visibility writes belong to the owner's
// content-management surface.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	UpdateVisibility(ctx context.Context, id, visibility string) error
}
