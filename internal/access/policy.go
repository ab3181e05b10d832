package access

import "github.com/vidgate/backend/internal/models"

// DenyReason classifies why a request was refused. The public message is
// deliberately coarse; the precise cause only reaches the access log.
type DenyReason int

const (
	DenyReasonNone DenyReason = iota
	// DenyReasonAuthenticationRequired means the video is private and no
	// caller identity was supplied.
	DenyReasonAuthenticationRequired
	// DenyReasonNotAuthorized means the caller is known but is neither the
	// owner nor the holder of a valid token.
	DenyReasonNotAuthorized
	// DenyReasonInvalidToken covers every non-valid token outcome without
	// distinguishing them to the caller.
	DenyReasonInvalidToken
	// DenyReasonInternal means the visibility value was unrecognised. A
	// misconfigured record denies, never default-allows.
	DenyReasonInternal
)

// Message returns the caller-facing deny string.
func (r DenyReason) Message() string {
	switch r {
	case DenyReasonAuthenticationRequired:
		return "authentication required"
	case DenyReasonNotAuthorized:
		return "this video is private"
	case DenyReasonInvalidToken:
		return "invalid or expired token"
	case DenyReasonInternal:
		return "internal error"
	default:
		return ""
	}
}

// Verdict is the result of a visibility-policy decision.
type Verdict struct {
	Allowed bool
	Reason  DenyReason
}

// Decide maps a video's visibility, the caller identity and the token
// validation outcome to an allow/deny verdict. Pure function; no I/O.
//
// Rules: public always allows. Unlisted allows anyone holding the link; a
// presented-but-invalid token never downgrades unlisted access. Private
// allows the owner or a valid token, and otherwise denies with a reason that
// separates "who are you" from "you may not".
func Decide(visibility, callerIdentity, ownerIdentity string, token models.TokenOutcome) Verdict {
	switch visibility {
	case models.VisibilityPublic:
		return Verdict{Allowed: true}
	case models.VisibilityUnlisted:
		return Verdict{Allowed: true}
	case models.VisibilityPrivate:
		if callerIdentity != "" && callerIdentity == ownerIdentity {
			return Verdict{Allowed: true}
		}
		if token == models.TokenOutcomeValid {
			return Verdict{Allowed: true}
		}
		if token != models.TokenOutcomeNone {
			return Verdict{Reason: DenyReasonInvalidToken}
		}
		if callerIdentity == "" {
			return Verdict{Reason: DenyReasonAuthenticationRequired}
		}
		return Verdict{Reason: DenyReasonNotAuthorized}
	default:
		return Verdict{Reason: DenyReasonInternal}
	}
}
