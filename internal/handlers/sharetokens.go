package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vidgate/backend/internal/access"
	"github.com/vidgate/backend/internal/logging"
	"github.com/vidgate/backend/internal/models"
)

// ShareTokenHandler provides the owner-facing share-token endpoints.
type ShareTokenHandler struct {
	Tokens   ShareTokenManager
	Sessions SessionManager
}

// Issue handles POST /api/v1/share-tokens.
func (h ShareTokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Tokens == nil {
		logger.Error("share token manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "share token service unavailable"})
		return
	}

	identity, ok := requireIdentity(w, r, h.Sessions)
	if !ok {
		return
	}

	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid share token payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.VideoID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoId is required"})
		return
	}

	token, shareURL, err := h.Tokens.Issue(ctx, req.VideoID, identity, access.IssueOptions{
		ExpiresInSeconds: req.ExpiresIn,
		MaxViews:         req.MaxViews,
	})
	if err != nil {
		switch {
		case errors.Is(err, access.ErrValidation):
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, access.ErrVideoNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		case errors.Is(err, access.ErrUnauthorized):
			logger.Warn("share token issue refused", "videoId", req.VideoID, "identity", identity)
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the video owner can create share links"})
		default:
			logger.Error("share token issue failed", "videoId", req.VideoID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create share link"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, issueTokenResponse{
		Token:     token.Token,
		ShareURL:  shareURL,
		TokenData: shareTokenView(token),
	})
}

// Revoke handles POST /api/v1/share-tokens/revoke.
func (h ShareTokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Tokens == nil {
		logger.Error("share token manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "share token service unavailable"})
		return
	}

	identity, ok := requireIdentity(w, r, h.Sessions)
	if !ok {
		return
	}

	var req revokeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid revoke payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TokenID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "tokenId is required"})
		return
	}

	if err := h.Tokens.Revoke(ctx, req.TokenID, identity); err != nil {
		switch {
		case errors.Is(err, access.ErrTokenNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "share token not found"})
		case errors.Is(err, access.ErrUnauthorized):
			logger.Warn("share token revoke refused", "tokenId", req.TokenID, "identity", identity)
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the creator can revoke a share link"})
		default:
			logger.Error("share token revoke failed", "tokenId", req.TokenID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to revoke share link"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

// List handles GET /api/v1/videos/{id}/share-tokens.
func (h ShareTokenHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Tokens == nil {
		logger.Error("share token manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "share token service unavailable"})
		return
	}

	identity, ok := requireIdentity(w, r, h.Sessions)
	if !ok {
		return
	}

	videoID := r.PathValue("id")
	if videoID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video id is required"})
		return
	}

	tokens, err := h.Tokens.ListForVideo(ctx, videoID, identity)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrVideoNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		case errors.Is(err, access.ErrUnauthorized):
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the video owner can list share links"})
		default:
			logger.Error("share token list failed", "videoId", videoID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list share links"})
		}
		return
	}

	views := make([]shareTokenJSON, 0, len(tokens))
	for _, token := range tokens {
		views = append(views, shareTokenView(token))
	}

	respondJSON(ctx, w, http.StatusOK, listTokensResponse{Tokens: views})
}

type issueTokenRequest struct {
	VideoID   string `json:"videoId"`
	ExpiresIn *int   `json:"expiresIn"`
	MaxViews  *int   `json:"maxViews"`
}

type revokeTokenRequest struct {
	TokenID string `json:"tokenId"`
}

type issueTokenResponse struct {
	Token     string         `json:"token"`
	ShareURL  string         `json:"shareUrl"`
	TokenData shareTokenJSON `json:"tokenData"`
}

type listTokensResponse struct {
	Tokens []shareTokenJSON `json:"tokens"`
}

type shareTokenJSON struct {
	ID        string     `json:"id"`
	VideoID   string     `json:"videoId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	MaxViews  *int       `json:"maxViews,omitempty"`
	ViewCount int        `json:"viewCount"`
	Revoked   bool       `json:"revoked"`
	CreatedAt time.Time  `json:"createdAt"`
}

func shareTokenView(token models.ShareToken) shareTokenJSON {
	return shareTokenJSON{
		ID:        token.ID,
		VideoID:   token.VideoID,
		ExpiresAt: token.ExpiresAt,
		MaxViews:  token.MaxViews,
		ViewCount: token.ViewCount,
		Revoked:   token.Revoked,
		CreatedAt: token.CreatedAt,
	}
}
