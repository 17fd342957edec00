// internal/handlers/game.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/datburnt/server/internal/cache"
	"github.com/datburnt/server/internal/game"
)

const (
	minRoomPlayers = 4
	maxRoomPlayers = 8

	defaultNumRounds = 3
)

type createGameRequest struct {
	MaxPlayers  int      `json:"maxPlayers"`
	NumRounds   int      `json:"numRounds"`
	Collections []string `json:"collections"`
}

type createGameResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Game    *game.RoomInfo `json:"game,omitempty"`
}

// CreateGameHandler allocates a room id, creates the room in the registry
// and returns its snapshot. The creator becomes the owner but does not join
// here; joining happens over the websocket.
func CreateGameHandler(logger *logrus.Logger, reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad game request payload", http.StatusBadRequest)
			return
		}
		if req.MaxPlayers < minRoomPlayers || req.MaxPlayers > maxRoomPlayers {
			http.Error(w, "maxPlayers must be between 4 and 8", http.StatusBadRequest)
			return
		}
		if req.NumRounds <= 0 {
			req.NumRounds = defaultNumRounds
		}
		if req.Collections == nil {
			req.Collections = []string{}
		}

		gameID, err := game.AllocateRoomID(reg)
		if err != nil {
			// Retryable: the client should simply try again.
			logger.Warnf("room id allocation failed for user %s: %v", userID, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(createGameResponse{
				Success: false,
				Message: "Failed to generate unique game ID. Please try again.",
			})
			return
		}

		room := reg.Create(gameID, userID, req.MaxPlayers, req.NumRounds, req.Collections)

		if err := cache.PublishRoomEvent(context.Background(), gameID, cache.RoomCreated, userID); err != nil {
			logger.Warnf("failed to publish room_created for %s: %v", gameID, err)
		}

		info := room.Info()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createGameResponse{Success: true, Game: &info})
	}
}

// ListGamesHandler returns snapshots of every live room, for dashboards and
// debugging.
func ListGamesHandler(reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateRequest(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rooms := reg.GetAll()
		infos := make([]game.RoomInfo, 0, len(rooms))
		for _, room := range rooms {
			infos = append(infos, room.Info())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(infos)
	}
}

// DeleteGameHandler removes a room explicitly. Owner only.
func DeleteGameHandler(logger *logrus.Logger, reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		gameID := strings.TrimPrefix(r.URL.Path, "/game/delete/")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		room, ok := reg.Get(gameID)
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		if room.Owner != userID {
			http.Error(w, "only the owner can delete the game", http.StatusForbidden)
			return
		}

		reg.Remove(gameID)
		if err := cache.PublishRoomEvent(context.Background(), gameID, cache.RoomDeleted, userID); err != nil {
			logger.Warnf("failed to publish room_deleted for %s: %v", gameID, err)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
