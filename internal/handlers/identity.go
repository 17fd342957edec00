// internal/handlers/identity.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/datburnt/server/internal/auth"
	"github.com/datburnt/server/internal/database"
	"github.com/datburnt/server/internal/game"
)

// guestAvatarURL renders a deterministic avatar for a synthesized guest id.
const guestAvatarURL = "https://api.dicebear.com/9.x/adventurer-neutral/svg?seed=%s"

// ResolveIdentity turns a connection request into an Identity. A valid
// auth_token cookie resolves to the registered user; otherwise a non-empty
// `name` query parameter yields a one-session guest with a synthesized
// "guest-" id. Anything else is a refusal.
func ResolveIdentity(r *http.Request) (game.Identity, error) {
	cookie := r.Header.Get("Cookie")
	if strings.Contains(cookie, "auth_token=") {
		token := extractCookieToken(cookie, "auth_token")
		userIDStr, err := auth.AuthenticateJWT(token)
		if err != nil {
			return game.Identity{}, fmt.Errorf("invalid auth token: %w", err)
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return game.Identity{}, fmt.Errorf("invalid user id in token: %w", err)
		}
		user, err := database.GetUserByID(r.Context(), userID)
		if err != nil {
			return game.Identity{}, fmt.Errorf("user lookup failed: %w", err)
		}
		return game.Identity{
			ID:     user.ID.String(),
			Name:   user.Username,
			Avatar: user.Avatar,
		}, nil
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		return game.Identity{}, fmt.Errorf("no credentials and no guest name")
	}

	id := "guest-" + game.RandomCode(6)
	return game.Identity{
		ID:     id,
		Name:   name,
		Avatar: fmt.Sprintf(guestAvatarURL, id),
	}, nil
}
