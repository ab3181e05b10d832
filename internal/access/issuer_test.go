package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

type videoReaderStub struct {
	videos map[string]models.Video
	err    error
}

func (s *videoReaderStub) FindByID(_ context.Context, id string) (models.Video, error) {
	if s.err != nil {
		return models.Video{}, s.err
	}
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func TestIssuerIssueSuccess(t *testing.T) {
	videos := &videoReaderStub{videos: map[string]models.Video{
		"vid-1": {ID: "vid-1", OwnerID: "owner-1", Visibility: models.VisibilityPrivate},
	}}
	store := newMemoryTokenStore()

	issued := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	issuer := NewIssuer(videos, store, "https://vidgate.example.com/")
	issuer.nowFunc = func() time.Time { return issued }

	token, shareURL, err := issuer.Issue(context.Background(), "vid-1", "owner-1", IssueOptions{
		ExpiresInSeconds: intPtr(3600),
		MaxViews:         intPtr(5),
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if token.ID == "" || token.Token == "" {
		t.Fatalf("expected populated token, got %+v", token)
	}
	if len(token.Token) < 40 {
		t.Fatalf("token secret looks too short to be 256 bits: %q", token.Token)
	}
	if token.VideoID != "vid-1" || token.CreatedBy != "owner-1" {
		t.Fatalf("unexpected token binding: %+v", token)
	}
	if token.ExpiresAt == nil || !token.ExpiresAt.Equal(issued.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", token.ExpiresAt)
	}
	if token.MaxViews == nil || *token.MaxViews != 5 {
		t.Fatalf("unexpected max views: %v", token.MaxViews)
	}
	if token.ViewCount != 0 || token.Revoked {
		t.Fatalf("new token must start unspent and unrevoked: %+v", token)
	}

	want := fmt.Sprintf("https://vidgate.example.com/watch/vid-1?token=%s", token.Token)
	if shareURL != want {
		t.Fatalf("unexpected share url: got %s want %s", shareURL, want)
	}

	if store.get(t, token.ID).Token != token.Token {
		t.Fatal("expected token to be persisted")
	}
}

func TestIssuerIssueUnlimitedToken(t *testing.T) {
	videos := &videoReaderStub{videos: map[string]models.Video{
		"vid-1": {ID: "vid-1", OwnerID: "owner-1"},
	}}
	issuer := NewIssuer(videos, newMemoryTokenStore(), "https://vidgate.example.com")

	token, _, err := issuer.Issue(context.Background(), "vid-1", "owner-1", IssueOptions{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token.ExpiresAt != nil || token.MaxViews != nil {
		t.Fatalf("expected no limits, got %+v", token)
	}
}

func TestIssuerIssueUniqueSecrets(t *testing.T) {
	videos := &videoReaderStub{videos: map[string]models.Video{
		"vid-1": {ID: "vid-1", OwnerID: "owner-1"},
	}}
	issuer := NewIssuer(videos, newMemoryTokenStore(), "https://vidgate.example.com")

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, _, err := issuer.Issue(context.Background(), "vid-1", "owner-1", IssueOptions{})
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		if seen[token.Token] {
			t.Fatalf("duplicate secret issued: %s", token.Token)
		}
		seen[token.Token] = true
	}
}

func TestIssuerIssueFailures(t *testing.T) {
	videos := &videoReaderStub{videos: map[string]models.Video{
		"vid-1": {ID: "vid-1", OwnerID: "owner-1"},
	}}
	issuer := NewIssuer(videos, newMemoryTokenStore(), "https://vidgate.example.com")

	cases := []struct {
		name     string
		videoID  string
		identity string
		opts     IssueOptions
		wantErr  error
	}{
		{"anonymousCaller", "vid-1", "", IssueOptions{}, ErrUnauthorized},
		{"notTheOwner", "vid-1", "user-2", IssueOptions{}, ErrUnauthorized},
		{"missingVideo", "vid-404", "owner-1", IssueOptions{}, ErrVideoNotFound},
		{"zeroExpiry", "vid-1", "owner-1", IssueOptions{ExpiresInSeconds: intPtr(0)}, ErrValidation},
		{"negativeExpiry", "vid-1", "owner-1", IssueOptions{ExpiresInSeconds: intPtr(-60)}, ErrValidation},
		{"zeroMaxViews", "vid-1", "owner-1", IssueOptions{MaxViews: intPtr(0)}, ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := issuer.Issue(context.Background(), tc.videoID, tc.identity, tc.opts)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIssuerRevoke(t *testing.T) {
	store := newMemoryTokenStore()
	seed := models.ShareToken{ID: "tok-1", Token: "secret", VideoID: "vid-1", CreatedBy: "owner-1"}
	if err := store.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	issuer := NewIssuer(&videoReaderStub{}, store, "https://vidgate.example.com")

	if err := issuer.Revoke(context.Background(), "tok-1", "user-2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for non-creator got %v", err)
	}
	if store.get(t, "tok-1").Revoked {
		t.Fatal("refused revoke must not mark the token")
	}

	if err := issuer.Revoke(context.Background(), "tok-1", "owner-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !store.get(t, "tok-1").Revoked {
		t.Fatal("expected token marked revoked")
	}

	// Revoking twice succeeds.
	if err := issuer.Revoke(context.Background(), "tok-1", "owner-1"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}

	if err := issuer.Revoke(context.Background(), "tok-404", "owner-1"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected token not found got %v", err)
	}
}

func TestIssuerListForVideo(t *testing.T) {
	videos := &videoReaderStub{videos: map[string]models.Video{
		"vid-1": {ID: "vid-1", OwnerID: "owner-1"},
	}}
	store := newMemoryTokenStore()
	for i := 0; i < 3; i++ {
		token := models.ShareToken{ID: fmt.Sprintf("tok-%d", i), Token: fmt.Sprintf("secret-%d", i), VideoID: "vid-1", CreatedBy: "owner-1"}
		if err := store.Create(context.Background(), token); err != nil {
			t.Fatalf("seed token: %v", err)
		}
	}

	issuer := NewIssuer(videos, store, "https://vidgate.example.com")

	tokens, err := issuer.ListForVideo(context.Background(), "vid-1", "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens got %d", len(tokens))
	}

	if _, err := issuer.ListForVideo(context.Background(), "vid-1", "user-2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized got %v", err)
	}
	if _, err := issuer.ListForVideo(context.Background(), "vid-404", "owner-1"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected video not found got %v", err)
	}
}

func TestIssuerTrimsBaseURL(t *testing.T) {
	issuer := NewIssuer(&videoReaderStub{}, newMemoryTokenStore(), "https://vidgate.example.com/")
	url := issuer.shareURL("vid-1", "secret")
	if strings.Contains(url, "com//watch") {
		t.Fatalf("trailing slash not trimmed: %s", url)
	}
}
