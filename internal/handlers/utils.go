package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/datburnt/server/internal/auth"
)

// extractCookieToken pulls a named cookie value out of a Cookie header, or
// returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// authenticateRequest resolves the auth_token cookie to a registered user id.
func authenticateRequest(r *http.Request) (string, error) {
	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		return "", fmt.Errorf("missing auth_token")
	}
	token := extractCookieToken(cookie, "auth_token")

	userID, err := auth.AuthenticateJWT(token)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return userID, nil
}
