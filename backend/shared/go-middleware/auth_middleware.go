package middleware

import (
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	ContextKeyUserID = contextKey("userID")
	ContextKeyRole   = contextKey("role")
)

// extractBearerToken reads the access token from "Authorization: Bearer ...".
func extractBearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}

// UserIDFromContext returns the subject stored by AdminAuthMiddleware.
func UserIDFromContext(r *http.Request) string {
	v, _ := r.Context().Value(ContextKeyUserID).(string)
	return v
}
