package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	videos := VideoHandler{Videos: deps.Videos, Sessions: deps.Sessions}
	accessCheck := AccessHandler{Access: deps.Access, Sessions: deps.Sessions}
	tokens := ShareTokenHandler{Tokens: deps.Tokens, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/videos", videos.Handle)
	mux.HandleFunc("/api/v1/videos/visibility", videos.UpdateVisibility)
	mux.HandleFunc("/api/v1/videos/{id}/access", accessCheck.Check)
	mux.HandleFunc("/api/v1/videos/{id}/share-tokens", tokens.List)
	mux.HandleFunc("/api/v1/share-tokens", tokens.Issue)
	mux.HandleFunc("/api/v1/share-tokens/revoke", tokens.Revoke)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore
	Access   AccessChecker
	Tokens   ShareTokenManager
}
