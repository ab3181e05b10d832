package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/vidgate/backend/internal/auth"
)

// bearerToken extracts the credential from an Authorization header, or ""
// when none is supplied.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// callerIdentity resolves the optional caller identity. A missing, unknown or
// expired credential yields the empty identity; only infrastructure failures
// return an error.
func callerIdentity(ctx context.Context, sessions SessionManager, r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" || sessions == nil {
		return "", nil
	}

	identity, err := sessions.Identify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrAccessTokenExpired) {
			return "", nil
		}
		return "", err
	}
	return identity, nil
}

// requireIdentity resolves the caller identity for owner-only endpoints,
// writing the response itself when the caller is not authenticated.
func requireIdentity(w http.ResponseWriter, r *http.Request, sessions SessionManager) (string, bool) {
	ctx := r.Context()

	if sessions == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return "", false
	}

	token := bearerToken(r)
	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return "", false
	}

	identity, err := sessions.Identify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrAccessTokenExpired) {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired credentials"})
			return "", false
		}
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to verify credentials"})
		return "", false
	}

	return identity, true
}

// clientIP extracts the originating address, honouring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
