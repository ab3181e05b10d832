package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

// Request describes a single access attempt against a video.
type Request struct {
	VideoID        string
	CallerIdentity string
	Token          string

	// Client metadata carried through to the audit log.
	ClientAddress string
	UserAgent     string
	Referrer      string
}

// Result is the controller's answer. Reason is the coarse caller-facing
// string and is empty when access is allowed.
type Result struct {
	Allowed bool
	Reason  string
	Video   models.Video
}

// Controller orchestrates the visibility policy and token validation for a
// single access request and dispatches the audit record.
type Controller struct {
	videos    VideoReader
	validator *Validator
	logger    Logger
	nowFunc   func() time.Time
}

// NewController wires the controller's collaborators. logger may be nil, in
// which case attempts are not recorded.
func NewController(videos VideoReader, validator *Validator, logger Logger) *Controller {
	if videos == nil || validator == nil {
		panic("access: controller requires video store and validator")
	}
	return &Controller{videos: videos, validator: validator, logger: logger}
}

// CheckAccess decides whether the request may play the video. It re-reads the
// video record, consults the token only when the token can affect the verdict
// (private video, caller not the owner), applies the visibility policy and
// fires the audit record without waiting on it.
//
// ErrVideoNotFound is returned when the video does not exist; any other error
// is an infrastructure failure and must surface as a 5xx, never as a deny.
func (c *Controller) CheckAccess(ctx context.Context, req Request) (Result, error) {
	video, err := c.videos.FindByID(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Result{}, ErrVideoNotFound
		}
		return Result{}, fmt.Errorf("load video: %w", err)
	}

	outcome := models.TokenOutcomeNone
	var token models.ShareToken
	if req.Token != "" && c.tokenCanGrant(video, req.CallerIdentity) {
		outcome, token, err = c.validator.Validate(ctx, req.Token, video.ID)
		if err != nil {
			return Result{}, err
		}
	}

	verdict := Decide(video.Visibility, req.CallerIdentity, video.OwnerID, outcome)

	c.record(req, video, outcome, token)

	if !verdict.Allowed {
		return Result{Reason: verdict.Reason.Message()}, nil
	}

	return Result{Allowed: true, Video: video}, nil
}

// tokenCanGrant reports whether validating a token could change the verdict.
// Public and unlisted videos admit the caller anyway, and owners need no
// token, so consulting one there would only burn quota.
func (c *Controller) tokenCanGrant(video models.Video, caller string) bool {
	if video.Visibility != models.VisibilityPrivate {
		return false
	}
	return caller == "" || caller != video.OwnerID
}

func (c *Controller) record(req Request, video models.Video, outcome models.TokenOutcome, token models.ShareToken) {
	if c.logger == nil {
		return
	}

	method := models.AccessMethodDirect
	if outcome != models.TokenOutcomeNone {
		method = models.AccessMethodShareToken
	}

	c.logger.Log(models.AccessLogEntry{
		ID:             uuid.NewString(),
		VideoID:        video.ID,
		ViewerIdentity: req.CallerIdentity,
		Method:         method,
		ShareTokenID:   token.ID,
		ClientAddress:  req.ClientAddress,
		UserAgent:      req.UserAgent,
		Referrer:       req.Referrer,
		CreatedAt:      c.now(),
	})
}

func (c *Controller) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now().UTC()
}
