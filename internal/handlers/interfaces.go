package handlers

import (
	"context"

	"github.com/vidgate/backend/internal/access"
	"github.com/vidgate/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and resolves authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Identify(ctx context.Context, accessToken string) (string, error)
}

// VideoStore captures persistence for the content-management endpoints.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	UpdateVisibility(ctx context.Context, id, visibility string) error
}

// AccessChecker decides access requests against videos.
type AccessChecker interface {
	CheckAccess(ctx context.Context, req access.Request) (access.Result, error)
}

// ShareTokenManager issues, revokes and lists share tokens on behalf of owners.
type ShareTokenManager interface {
	Issue(ctx context.Context, videoID, issuerIdentity string, opts access.IssueOptions) (models.ShareToken, string, error)
	Revoke(ctx context.Context, tokenID, requesterIdentity string) error
	ListForVideo(ctx context.Context, videoID, requesterIdentity string) ([]models.ShareToken, error)
}
