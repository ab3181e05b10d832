package access

import (
	"context"
	"fmt"

	"github.com/vidgate/backend/internal/models"
)

// Validator checks a presented share token and consumes one view on success.
// All predicate checks happen inside the store's atomic consume so concurrent
// validations can never overshoot a token's quota.
type Validator struct {
	tokens TokenStore
}

// NewValidator constructs a Validator backed by the provided token store.
func NewValidator(tokens TokenStore) *Validator {
	if tokens == nil {
		panic("access: token store must not be nil")
	}
	return &Validator{tokens: tokens}
}

// Validate resolves the token scoped to the video and atomically consumes a
// view. The returned error is non-nil only when the store itself failed; in
// that case the outcome is TokenOutcomeStorageError and the caller must
// surface an internal error rather than a deny.
func (v *Validator) Validate(ctx context.Context, token, videoID string) (models.TokenOutcome, models.ShareToken, error) {
	if token == "" {
		return models.TokenOutcomeNotFound, models.ShareToken{}, nil
	}

	outcome, row, err := v.tokens.Consume(ctx, token, videoID)
	if err != nil {
		return models.TokenOutcomeStorageError, models.ShareToken{}, fmt.Errorf("consume share token: %w", err)
	}

	return outcome, row, nil
}
