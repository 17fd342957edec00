// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/datburnt/server/internal/auth"
	"github.com/datburnt/server/internal/cache"
	"github.com/datburnt/server/internal/database"
	"github.com/datburnt/server/internal/game"
	"github.com/datburnt/server/internal/handlers"
	"github.com/datburnt/server/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Room event auditing is optional; the server runs without Redis.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, room event auditing disabled: %v", err)
	}

	registry := game.NewRegistry()

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)
	mux.HandleFunc("/user/me", handlers.MeHandler)

	// game endpoints
	mux.Handle("/game/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateGameHandler(logger, registry),
	)))
	mux.Handle("/game/list", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListGamesHandler(registry),
	)))
	mux.Handle("/game/delete/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.DeleteGameHandler(logger, registry),
	)))

	// game websocket
	mux.Handle("/ws/game", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, registry),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
