package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidgate/backend/internal/logging"
	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

// VideoHandler provides the owner-facing content-management endpoints. The
// access subsystem only ever reads what these write.
type VideoHandler struct {
	Videos   VideoStore
	Sessions SessionManager
	NowFunc  func() time.Time
}

// Handle dispatches /api/v1/videos: POST creates, GET lists the caller's videos.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	identity, ok := requireIdentity(w, r, h.Sessions)
	if !ok {
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	if req.Visibility == "" {
		req.Visibility = models.VisibilityPrivate
	}
	if !validVisibility(req.Visibility) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "visibility must be public, unlisted, or private"})
		return
	}

	video := models.Video{
		ID:         uuid.NewString(),
		OwnerID:    identity,
		Title:      req.Title,
		AssetURL:   req.AssetURL,
		Visibility: req.Visibility,
		CreatedAt:  h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create video"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, videoResponse{Video: videoDescriptor(video)})
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	identity, ok := requireIdentity(w, r, h.Sessions)
	if !ok {
		return
	}

	videos, err := h.Videos.ListForOwner(ctx, identity)
	if err != nil {
		logger.Error("list videos failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	views := make([]videoJSON, 0, len(videos))
	for _, video := range videos {
		views = append(views, videoDescriptor(video))
	}

	respondJSON(ctx, w, http.StatusOK, listVideosResponse{Videos: views})
}

// UpdateVisibility handles POST /api/v1/videos/visibility.
func (h VideoHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	identity, ok := requireIdentity(w, r, h.Sessions)
	if !ok {
		return
	}

	var req updateVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid visibility payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.VideoID == "" || !validVisibility(req.Visibility) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoId and a valid visibility are required"})
		return
	}

	video, err := h.Videos.FindByID(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("load video failed", "videoId", req.VideoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update visibility"})
		return
	}

	if video.OwnerID != identity {
		logger.Warn("visibility update refused", "videoId", req.VideoID, "identity", identity)
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the video owner can change visibility"})
		return
	}

	if err := h.Videos.UpdateVisibility(ctx, req.VideoID, req.Visibility); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("update visibility failed", "videoId", req.VideoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update visibility"})
		return
	}

	video.Visibility = req.Visibility
	respondJSON(ctx, w, http.StatusOK, videoResponse{Video: videoDescriptor(video)})
}

func validVisibility(v string) bool {
	switch v {
	case models.VisibilityPublic, models.VisibilityUnlisted, models.VisibilityPrivate:
		return true
	default:
		return false
	}
}

type createVideoRequest struct {
	Title      string `json:"title"`
	AssetURL   string `json:"assetUrl"`
	Visibility string `json:"visibility"`
}

type updateVisibilityRequest struct {
	VideoID    string `json:"videoId"`
	Visibility string `json:"visibility"`
}

type videoResponse struct {
	Video videoJSON `json:"video"`
}

type listVideosResponse struct {
	Videos []videoJSON `json:"videos"`
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
