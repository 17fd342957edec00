// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/datburnt/server/internal/cache"
	"github.com/datburnt/server/internal/game"
	"github.com/datburnt/server/internal/middleware"
)

// playerConn adapts a websocket to the room's Conn capability. Send is
// non-blocking: frames queue on a buffered channel drained by writePump, and
// a full or dead channel drops the frame rather than stalling room mutation.
type playerConn struct {
	playerID string
	out      chan []byte
	cancel   context.CancelFunc
	logger   *logrus.Logger
}

func (c *playerConn) Send(data []byte) {
	select {
	case c.out <- data:
	default:
		c.logger.Warnf("out channel for player %s full or closed, dropping frame", c.playerID)
	}
}

// Close tears the connection down by cancelling its context; the read loop
// exits and the handler's cleanup path runs.
func (c *playerConn) Close() {
	c.cancel()
}

// GameWSHandler is the connection gateway: it upgrades the connection,
// resolves the caller's identity, looks the room up by the gameId query
// parameter, and attaches the connection to it. Rejections are sent as an
// error frame before the close, since clients rely on reading the reason.
func GameWSHandler(logger *logrus.Logger, reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		user, err := ResolveIdentity(r)
		if err != nil {
			logger.Warnf("identity resolution failed for %s: %v", remoteAddr, err)
			c.Close(InvalidAuthTokenError, "could not resolve identity")
			return
		}

		gameID := r.URL.Query().Get("gameId")
		if gameID == "" {
			writeErrorFrame(r.Context(), c, "Game ID is required")
			c.Close(MissingGameIDError, "missing gameId")
			return
		}

		room, ok := reg.Get(gameID)
		if !ok {
			writeErrorFrame(r.Context(), c, "Game not found")
			c.Close(InvalidGameIDError, "game does not exist")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &playerConn{
			playerID: user.ID,
			out:      make(chan []byte, 16),
			cancel:   cancel,
			logger:   logger,
		}

		// AddPlayer queues the game_info snapshot on conn before writePump
		// starts; the pump drains it once running.
		if res := room.AddPlayer(conn, user); !res.Success {
			writeErrorFrame(r.Context(), c, res.Error)
			c.Close(JoinRejectedError, res.Error)
			return
		}

		logger.Infof("player %s (%s) connected to game %s", user.ID, remoteAddr, gameID)

		go writePump(ctx, c, conn, logger)

		readErr := readPump(ctx, c, reg, gameID, user, conn, logger)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, readErr)

		// The room may already have been reclaimed; a vanished room makes
		// disconnect a no-op, not an error.
		if room, ok := reg.Get(gameID); ok {
			room.RemovePlayer(user.ID)
		}
	}
}

// readPump reads client frames until the connection dies, dispatching each
// decoded command into the room.
func readPump(ctx context.Context, c *websocket.Conn, reg *game.Registry, gameID string, user game.Identity, conn *playerConn, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			continue
		}

		dispatchGameMessage(msg, reg, gameID, user, conn, logger)
	}
}

// dispatchGameMessage decodes one inbound frame and applies it. Failures of
// any kind are relayed only to the requesting connection as an error frame;
// the connection stays open. A panic during room mutation is caught here so
// one bad message cannot take the process down.
func dispatchGameMessage(msg []byte, reg *game.Registry, gameID string, user game.Identity, conn *playerConn, logger *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic handling message from %s in game %s: %v", user.ID, gameID, r)
			conn.Send(game.EncodeEvent(game.NewErrorEvent("Internal server error")))
		}
	}()

	ev, err := game.DecodeClientEvent(msg)
	if err != nil {
		logger.Warnf("bad message from %s in game %s: %v", user.ID, gameID, err)
		conn.Send(game.EncodeEvent(game.NewErrorEvent("Invalid message format")))
		return
	}

	room, ok := reg.Get(gameID)
	if !ok {
		return
	}

	switch cmd := ev.(type) {
	case game.KickPlayerCommand:
		if res := room.KickPlayer(cmd.PlayerID, user.ID); !res.Success {
			conn.Send(game.EncodeEvent(game.NewErrorEvent(res.Error)))
		}
	case game.StartGameCommand:
		res := room.StartGame(user.ID)
		if !res.Success {
			conn.Send(game.EncodeEvent(game.NewErrorEvent(res.Error)))
			return
		}
		if err := cache.PublishRoomEvent(context.Background(), gameID, cache.RoomStarted, user.ID); err != nil {
			logger.Warnf("failed to publish game_started for %s: %v", gameID, err)
		}
	}
}

// writePump drains the out channel onto the wire and pings periodically.
func writePump(ctx context.Context, c *websocket.Conn, conn *playerConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-conn.out:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to player %s: %v", conn.playerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping to player %s failed, assuming disconnect: %v", conn.playerID, err)
				return
			}
		}
	}
}

// writeErrorFrame sends an error event directly, for rejections that happen
// before the connection is attached to a room.
func writeErrorFrame(ctx context.Context, c *websocket.Conn, msg string) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = c.Write(writeCtx, websocket.MessageText, game.EncodeEvent(game.NewErrorEvent(msg)))
}
