package handlers

import (
	"net/http"

	"community-backend/services"
)

const userIDHeader = "X-User-ID"

// WithAuth validates the bearer token and stashes the caller's user id in
// the request headers for downstream handlers.
func WithAuth(authSvc *services.AuthService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			respondWithError(w, "Unauthorized", "Missing Authorization header (token only)", http.StatusUnauthorized)
			return
		}
		uid, _, err := authSvc.ParseToken(token)
		if err != nil {
			respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
			return
		}
		r.Header.Set(userIDHeader, uid)
		next(w, r)
	}
}

func callerID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}
