package models

import "time"

// User represents an account within the VidGate platform.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Visibility tiers for a video. Every video carries exactly one at any
// instant; it is mutated only by the owner through the content store.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// Video is the content-store record the access subsystem reads. Visibility is
// re-read per request and never cached across requests.
type Video struct {
	ID         string
	OwnerID    string
	Title      string
	AssetURL   string
	Visibility string
	CreatedAt  time.Time
}

// ShareToken is a capability credential granting time-boxed, view-limited
// access to a non-public video. ViewCount and Revoked are mutated exclusively
// through the store's atomic consume and revoke operations.
type ShareToken struct {
	ID        string
	Token     string
	VideoID   string
	CreatedBy string
	ExpiresAt *time.Time
	MaxViews  *int
	ViewCount int
	Revoked   bool
	CreatedAt time.Time
}

// TokenOutcome is the closed result set of a share-token validation. Only
// TokenOutcomeValid consumes a view; every other outcome leaves the token row
// untouched.
type TokenOutcome int

const (
	// TokenOutcomeNone means no token was presented or consulted.
	TokenOutcomeNone TokenOutcome = iota
	TokenOutcomeValid
	TokenOutcomeNotFound
	TokenOutcomeRevoked
	TokenOutcomeExpired
	TokenOutcomeQuotaExceeded
	TokenOutcomeStorageError
)

// String returns the log-friendly name of the outcome.
func (o TokenOutcome) String() string {
	switch o {
	case TokenOutcomeNone:
		return "none"
	case TokenOutcomeValid:
		return "valid"
	case TokenOutcomeNotFound:
		return "not_found"
	case TokenOutcomeRevoked:
		return "revoked"
	case TokenOutcomeExpired:
		return "expired"
	case TokenOutcomeQuotaExceeded:
		return "quota_exceeded"
	case TokenOutcomeStorageError:
		return "storage_error"
	default:
		return "unknown"
	}
}

// Access methods recorded in the audit log.
const (
	AccessMethodDirect     = "direct"
	AccessMethodShareToken = "share_token"
	AccessMethodEmbed      = "embed"
)

// AccessLogEntry is an append-only audit record of an access attempt. It is
// never read on the decision path.
type AccessLogEntry struct {
	ID             string
	VideoID        string
	ViewerIdentity string
	Method         string
	ShareTokenID   string
	ClientAddress  string
	UserAgent      string
	Referrer       string
	CreatedAt      time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
