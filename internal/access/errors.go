package access

import "errors"

var (
	// ErrVideoNotFound indicates the requested video does not exist.
	ErrVideoNotFound = errors.New("video not found")
	// ErrTokenNotFound indicates the share token row does not exist.
	ErrTokenNotFound = errors.New("share token not found")
	// ErrUnauthorized indicates the caller may not perform an owner-only action.
	ErrUnauthorized = errors.New("not authorized")
	// ErrValidation indicates malformed issuance options.
	ErrValidation = errors.New("invalid share token options")
)
