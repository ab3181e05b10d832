package access

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

// IssueOptions carries the optional constraints for a new share token. Nil
// fields mean "no limit".
type IssueOptions struct {
	ExpiresInSeconds *int
	MaxViews         *int
}

// Issuer creates and revokes share tokens on behalf of video owners.
type Issuer struct {
	videos  VideoReader
	tokens  TokenStore
	baseURL string
	nowFunc func() time.Time
}

// NewIssuer constructs an Issuer. baseURL is the public origin embedded in
// generated share links.
func NewIssuer(videos VideoReader, tokens TokenStore, baseURL string) *Issuer {
	if videos == nil || tokens == nil {
		panic("access: issuer requires video and token stores")
	}
	return &Issuer{
		videos:  videos,
		tokens:  tokens,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Issue creates a share token for the video after verifying, with a fresh
// read, that the issuer still owns it. Returns the persisted token and the
// fully-qualified share URL carrying it.
func (i *Issuer) Issue(ctx context.Context, videoID, issuerIdentity string, opts IssueOptions) (models.ShareToken, string, error) {
	if issuerIdentity == "" {
		return models.ShareToken{}, "", ErrUnauthorized
	}

	if opts.ExpiresInSeconds != nil && *opts.ExpiresInSeconds <= 0 {
		return models.ShareToken{}, "", fmt.Errorf("%w: expiresIn must be positive", ErrValidation)
	}
	if opts.MaxViews != nil && *opts.MaxViews <= 0 {
		return models.ShareToken{}, "", fmt.Errorf("%w: maxViews must be positive", ErrValidation)
	}

	video, err := i.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ShareToken{}, "", ErrVideoNotFound
		}
		return models.ShareToken{}, "", fmt.Errorf("load video: %w", err)
	}

	if video.OwnerID != issuerIdentity {
		return models.ShareToken{}, "", ErrUnauthorized
	}

	secret, err := newShareSecret()
	if err != nil {
		return models.ShareToken{}, "", fmt.Errorf("generate share token: %w", err)
	}

	now := i.now()
	token := models.ShareToken{
		ID:        uuid.NewString(),
		Token:     secret,
		VideoID:   video.ID,
		CreatedBy: issuerIdentity,
		MaxViews:  opts.MaxViews,
		CreatedAt: now,
	}
	if opts.ExpiresInSeconds != nil {
		expires := now.Add(time.Duration(*opts.ExpiresInSeconds) * time.Second)
		token.ExpiresAt = &expires
	}

	if err := i.tokens.Create(ctx, token); err != nil {
		return models.ShareToken{}, "", fmt.Errorf("persist share token: %w", err)
	}

	return token, i.shareURL(video.ID, secret), nil
}

// Revoke marks the token revoked after checking the requester created it.
// Revoking an already-revoked token succeeds silently.
func (i *Issuer) Revoke(ctx context.Context, tokenID, requesterIdentity string) error {
	token, err := i.tokens.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("load share token: %w", err)
	}

	if token.CreatedBy != requesterIdentity {
		return ErrUnauthorized
	}

	if err := i.tokens.Revoke(ctx, tokenID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("revoke share token: %w", err)
	}

	return nil
}

// ListForVideo returns the outstanding tokens for a video the requester owns.
func (i *Issuer) ListForVideo(ctx context.Context, videoID, requesterIdentity string) ([]models.ShareToken, error) {
	video, err := i.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("load video: %w", err)
	}

	if video.OwnerID != requesterIdentity {
		return nil, ErrUnauthorized
	}

	tokens, err := i.tokens.ListForVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("list share tokens: %w", err)
	}
	return tokens, nil
}

func (i *Issuer) shareURL(videoID, secret string) string {
	return fmt.Sprintf("%s/watch/%s?token=%s", i.baseURL, videoID, url.QueryEscape(secret))
}

func (i *Issuer) now() time.Time {
	if i.nowFunc != nil {
		return i.nowFunc()
	}
	return time.Now().UTC()
}

// newShareSecret draws 32 bytes (256 bits) from the system CSPRNG so tokens
// cannot be guessed or enumerated.
func newShareSecret() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
