// internal/handlers/game_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datburnt/server/internal/auth"
	"github.com/datburnt/server/internal/game"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func authedRequest(t *testing.T, method, target, body string) (*http.Request, string) {
	t.Helper()
	userID := uuid.New().String()
	token, err := auth.CreateJWT(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Cookie", "auth_token="+token)
	return req, userID
}

func TestCreateGame(t *testing.T) {
	auth.Init() // ephemeral keys, no DB needed
	reg := game.NewRegistry()

	req, userID := authedRequest(t, "POST", "/game/create", `{"maxPlayers":4,"numRounds":5,"collections":["cats"]}`)
	w := httptest.NewRecorder()
	CreateGameHandler(testLogger(), reg).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp createGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Game)
	assert.Len(t, resp.Game.ID, 6)
	assert.Equal(t, userID, resp.Game.Owner)
	assert.Equal(t, 4, resp.Game.MaxPlayers)
	assert.Equal(t, 5, resp.Game.NumRounds)
	assert.Equal(t, []string{"cats"}, resp.Game.Collections)
	assert.Equal(t, game.StatusLobby, resp.Game.Status)
	assert.Empty(t, resp.Game.Players)

	assert.True(t, reg.Exists(resp.Game.ID))
}

func TestCreateGameValidatesMaxPlayers(t *testing.T) {
	auth.Init()
	reg := game.NewRegistry()

	for _, body := range []string{`{"maxPlayers":3}`, `{"maxPlayers":9}`, `{}`} {
		req, _ := authedRequest(t, "POST", "/game/create", body)
		w := httptest.NewRecorder()
		CreateGameHandler(testLogger(), reg).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, reg.GetAll())
}

func TestCreateGameRequiresAuth(t *testing.T) {
	auth.Init()
	reg := game.NewRegistry()

	req := httptest.NewRequest("POST", "/game/create", bytes.NewBufferString(`{"maxPlayers":4}`))
	w := httptest.NewRecorder()
	CreateGameHandler(testLogger(), reg).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListGames(t *testing.T) {
	auth.Init()
	reg := game.NewRegistry()
	reg.Create("AAAAAA", "owner-1", 4, 3, nil)
	reg.Create("BBBBBB", "owner-2", 8, 3, nil)

	req, _ := authedRequest(t, "GET", "/game/list", "")
	w := httptest.NewRecorder()
	ListGamesHandler(reg).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var infos []game.RoomInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	assert.Len(t, infos, 2)
}

func TestDeleteGameOwnerOnly(t *testing.T) {
	auth.Init()
	reg := game.NewRegistry()

	// Create through the handler so the owner has a real token.
	createReq, ownerID := authedRequest(t, "POST", "/game/create", `{"maxPlayers":4}`)
	w := httptest.NewRecorder()
	CreateGameHandler(testLogger(), reg).ServeHTTP(w, createReq)
	require.Equal(t, http.StatusOK, w.Code)

	var resp createGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	gameID := resp.Game.ID

	// A different user may not delete it.
	req, _ := authedRequest(t, "DELETE", "/game/delete/"+gameID, "")
	w = httptest.NewRecorder()
	DeleteGameHandler(testLogger(), reg).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, reg.Exists(gameID))

	// The owner may.
	ownerToken, err := auth.CreateJWT(ownerID)
	require.NoError(t, err)
	req = httptest.NewRequest("DELETE", "/game/delete/"+gameID, nil)
	req.Header.Set("Cookie", "auth_token="+ownerToken)
	w = httptest.NewRecorder()
	DeleteGameHandler(testLogger(), reg).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, reg.Exists(gameID))
}
