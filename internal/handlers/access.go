package handlers

import (
	"errors"
	"net/http"

	"github.com/vidgate/backend/internal/access"
	"github.com/vidgate/backend/internal/logging"
	"github.com/vidgate/backend/internal/models"
)

// AccessHandler answers the video-serving frontend's access checks.
type AccessHandler struct {
	Access   AccessChecker
	Sessions SessionManager
}

// Check handles GET /api/v1/videos/{id}/access.
func (h AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Access == nil {
		logger.Error("access controller unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "access service unavailable"})
		return
	}

	videoID := r.PathValue("id")
	if videoID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video id is required"})
		return
	}

	caller, err := callerIdentity(ctx, h.Sessions, r)
	if err != nil {
		logger.Error("resolve caller identity", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to verify credentials"})
		return
	}

	result, err := h.Access.CheckAccess(ctx, access.Request{
		VideoID:        videoID,
		CallerIdentity: caller,
		Token:          r.URL.Query().Get("token"),
		ClientAddress:  clientIP(r),
		UserAgent:      r.UserAgent(),
		Referrer:       r.Referer(),
	})
	if err != nil {
		if errors.Is(err, access.ErrVideoNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, accessDeniedResponse{Reason: "video not found"})
			return
		}
		logger.Error("access check failed", "videoId", videoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to check access"})
		return
	}

	if !result.Allowed {
		respondJSON(ctx, w, http.StatusForbidden, accessDeniedResponse{Reason: result.Reason})
		return
	}

	respondJSON(ctx, w, http.StatusOK, accessAllowedResponse{
		Allowed: true,
		Video:   videoDescriptor(result.Video),
	})
}

type accessAllowedResponse struct {
	Allowed bool      `json:"allowed"`
	Video   videoJSON `json:"video"`
}

type accessDeniedResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

type videoJSON struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AssetURL   string `json:"assetUrl"`
	Visibility string `json:"visibility"`
}

// videoDescriptor shapes the minimal playback descriptor. Owner identity and
// anything resembling a stream key stay out of the response.
func videoDescriptor(video models.Video) videoJSON {
	return videoJSON{
		ID:         video.ID,
		Title:      video.Title,
		AssetURL:   video.AssetURL,
		Visibility: video.Visibility,
	}
}
