package access

import (
	"testing"

	"github.com/vidgate/backend/internal/models"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		visibility string
		caller     string
		owner      string
		token      models.TokenOutcome
		allowed    bool
		reason     DenyReason
	}{
		{"publicAnonymous", models.VisibilityPublic, "", "owner-1", models.TokenOutcomeNone, true, DenyReasonNone},
		{"publicAuthenticated", models.VisibilityPublic, "user-2", "owner-1", models.TokenOutcomeNone, true, DenyReasonNone},
		{"unlistedAnonymous", models.VisibilityUnlisted, "", "owner-1", models.TokenOutcomeNone, true, DenyReasonNone},
		{"unlistedInvalidToken", models.VisibilityUnlisted, "", "owner-1", models.TokenOutcomeRevoked, true, DenyReasonNone},
		{"privateOwner", models.VisibilityPrivate, "owner-1", "owner-1", models.TokenOutcomeNone, true, DenyReasonNone},
		{"privateValidToken", models.VisibilityPrivate, "", "owner-1", models.TokenOutcomeValid, true, DenyReasonNone},
		{"privateAnonymousNoToken", models.VisibilityPrivate, "", "owner-1", models.TokenOutcomeNone, false, DenyReasonAuthenticationRequired},
		{"privateStrangerNoToken", models.VisibilityPrivate, "user-2", "owner-1", models.TokenOutcomeNone, false, DenyReasonNotAuthorized},
		{"privateRevokedToken", models.VisibilityPrivate, "", "owner-1", models.TokenOutcomeRevoked, false, DenyReasonInvalidToken},
		{"privateExpiredToken", models.VisibilityPrivate, "", "owner-1", models.TokenOutcomeExpired, false, DenyReasonInvalidToken},
		{"privateExhaustedToken", models.VisibilityPrivate, "", "owner-1", models.TokenOutcomeQuotaExceeded, false, DenyReasonInvalidToken},
		{"privateUnknownToken", models.VisibilityPrivate, "user-2", "owner-1", models.TokenOutcomeNotFound, false, DenyReasonInvalidToken},
		{"unknownVisibilityDenies", "internal", "owner-1", "owner-1", models.TokenOutcomeNone, false, DenyReasonInternal},
		{"emptyVisibilityDenies", "", "", "owner-1", models.TokenOutcomeNone, false, DenyReasonInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := Decide(tc.visibility, tc.caller, tc.owner, tc.token)
			if verdict.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v got %v", tc.allowed, verdict.Allowed)
			}
			if verdict.Reason != tc.reason {
				t.Fatalf("expected reason %v got %v", tc.reason, verdict.Reason)
			}
		})
	}
}

func TestDecideEmptyOwnerNeverMatchesAnonymous(t *testing.T) {
	// A video row with no owner must not grant the anonymous caller
	// owner-level access.
	verdict := Decide(models.VisibilityPrivate, "", "", models.TokenOutcomeNone)
	if verdict.Allowed {
		t.Fatal("anonymous caller must not match an empty owner identity")
	}
}

func TestDenyReasonMessages(t *testing.T) {
	// The public strings stay coarse so callers cannot distinguish a
	// revoked token from an exhausted one.
	if DenyReasonInvalidToken.Message() != "invalid or expired token" {
		t.Fatalf("unexpected message: %q", DenyReasonInvalidToken.Message())
	}
	if DenyReasonNotAuthorized.Message() != "this video is private" {
		t.Fatalf("unexpected message: %q", DenyReasonNotAuthorized.Message())
	}
	if DenyReasonNone.Message() != "" {
		t.Fatalf("expected empty message for none, got %q", DenyReasonNone.Message())
	}
}
