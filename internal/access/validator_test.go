package access

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

// memoryTokenStore implements TokenStore with the same consume semantics the
// SQL store enforces: every predicate is re-checked under the lock that
// increments the counter, so concurrent consumes cannot overshoot.
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.ShareToken

	createErr  error
	consumeErr error
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]models.ShareToken)}
}

func (s *memoryTokenStore) Create(_ context.Context, token models.ShareToken) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = token
	return nil
}

func (s *memoryTokenStore) FindByID(_ context.Context, id string) (models.ShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return models.ShareToken{}, repositories.ErrNotFound
	}
	return token, nil
}

func (s *memoryTokenStore) ListForVideo(_ context.Context, videoID string) ([]models.ShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ShareToken
	for _, token := range s.tokens {
		if token.VideoID == videoID {
			out = append(out, token)
		}
	}
	return out, nil
}

func (s *memoryTokenStore) Consume(_ context.Context, secret, videoID string) (models.TokenOutcome, models.ShareToken, error) {
	if s.consumeErr != nil {
		return models.TokenOutcomeNone, models.ShareToken{}, s.consumeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, token := range s.tokens {
		if token.Token != secret || token.VideoID != videoID {
			continue
		}
		if token.Revoked {
			return models.TokenOutcomeRevoked, models.ShareToken{}, nil
		}
		if token.ExpiresAt != nil && !token.ExpiresAt.After(time.Now().UTC()) {
			return models.TokenOutcomeExpired, models.ShareToken{}, nil
		}
		if token.MaxViews != nil && token.ViewCount >= *token.MaxViews {
			return models.TokenOutcomeQuotaExceeded, models.ShareToken{}, nil
		}
		token.ViewCount++
		s.tokens[id] = token
		return models.TokenOutcomeValid, token, nil
	}

	return models.TokenOutcomeNotFound, models.ShareToken{}, nil
}

func (s *memoryTokenStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return repositories.ErrNotFound
	}
	token.Revoked = true
	s.tokens[id] = token
	return nil
}

func (s *memoryTokenStore) DeleteExpired(_ context.Context, olderThan time.Time, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, token := range s.tokens {
		if int(deleted) >= limit {
			break
		}
		if token.ExpiresAt != nil && token.ExpiresAt.Before(olderThan) {
			delete(s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memoryTokenStore) get(t *testing.T, id string) models.ShareToken {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		t.Fatalf("token %s not in store", id)
	}
	return token
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestValidatorValidOutcomeConsumesOneView(t *testing.T) {
	store := newMemoryTokenStore()
	seed := models.ShareToken{ID: "tok-1", Token: "secret", VideoID: "vid-1", MaxViews: intPtr(3)}
	if err := store.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	validator := NewValidator(store)

	outcome, token, err := validator.Validate(context.Background(), "secret", "vid-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if outcome != models.TokenOutcomeValid {
		t.Fatalf("expected valid outcome got %v", outcome)
	}
	if token.ViewCount != 1 {
		t.Fatalf("expected view count 1 got %d", token.ViewCount)
	}
	if store.get(t, "tok-1").ViewCount != 1 {
		t.Fatalf("expected persisted view count 1 got %d", store.get(t, "tok-1").ViewCount)
	}
}

func TestValidatorNonValidOutcomes(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	store := newMemoryTokenStore()
	seeds := []models.ShareToken{
		{ID: "tok-revoked", Token: "revoked", VideoID: "vid-1", Revoked: true},
		{ID: "tok-expired", Token: "expired", VideoID: "vid-1", ExpiresAt: timePtr(past)},
		{ID: "tok-spent", Token: "spent", VideoID: "vid-1", MaxViews: intPtr(2), ViewCount: 2},
		{ID: "tok-other", Token: "other-video", VideoID: "vid-2"},
	}
	for _, seed := range seeds {
		if err := store.Create(context.Background(), seed); err != nil {
			t.Fatalf("seed token: %v", err)
		}
	}

	validator := NewValidator(store)

	cases := []struct {
		name    string
		secret  string
		outcome models.TokenOutcome
	}{
		{"empty", "", models.TokenOutcomeNotFound},
		{"unknown", "nope", models.TokenOutcomeNotFound},
		{"revoked", "revoked", models.TokenOutcomeRevoked},
		{"expired", "expired", models.TokenOutcomeExpired},
		{"quotaExhausted", "spent", models.TokenOutcomeQuotaExceeded},
		{"wrongVideo", "other-video", models.TokenOutcomeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, _, err := validator.Validate(context.Background(), tc.secret, "vid-1")
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if outcome != tc.outcome {
				t.Fatalf("expected %v got %v", tc.outcome, outcome)
			}
		})
	}

	// None of the refusals may have touched a counter.
	for _, seed := range seeds {
		if got := store.get(t, seed.ID).ViewCount; got != seed.ViewCount {
			t.Fatalf("token %s view count changed: got %d want %d", seed.ID, got, seed.ViewCount)
		}
	}
}

func TestValidatorStoreError(t *testing.T) {
	store := newMemoryTokenStore()
	store.consumeErr = errors.New("connection refused")

	validator := NewValidator(store)

	outcome, _, err := validator.Validate(context.Background(), "secret", "vid-1")
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if outcome != models.TokenOutcomeStorageError {
		t.Fatalf("expected storage error outcome got %v", outcome)
	}
}

func TestValidatorConcurrentQuotaEnforcement(t *testing.T) {
	store := newMemoryTokenStore()
	seed := models.ShareToken{ID: "tok-1", Token: "secret", VideoID: "vid-1", MaxViews: intPtr(1)}
	if err := store.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	validator := NewValidator(store)

	const attempts = 50
	outcomes := make([]models.TokenOutcome, attempts)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(idx int) {
			defer done.Done()
			start.Wait()
			outcome, _, err := validator.Validate(context.Background(), "secret", "vid-1")
			if err != nil {
				t.Errorf("validate %d: %v", idx, err)
				return
			}
			outcomes[idx] = outcome
		}(i)
	}
	start.Done()
	done.Wait()

	var valid, exhausted int
	for _, outcome := range outcomes {
		switch outcome {
		case models.TokenOutcomeValid:
			valid++
		case models.TokenOutcomeQuotaExceeded:
			exhausted++
		default:
			t.Fatalf("unexpected outcome %v", outcome)
		}
	}

	if valid != 1 {
		t.Fatalf("expected exactly 1 valid outcome got %d", valid)
	}
	if exhausted != attempts-1 {
		t.Fatalf("expected %d quota refusals got %d", attempts-1, exhausted)
	}
	if got := store.get(t, "tok-1").ViewCount; got != 1 {
		t.Fatalf("expected final view count 1 got %d", got)
	}
}
