package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catanforge/catan-server-go/internal/game"
	"github.com/catanforge/catan-server-go/internal/game/state"
	"github.com/catanforge/catan-server-go/internal/server"
)

// web-demo serves the HTTP API and the WebSocket hub on one port with an
// in-memory store and a demo game already created.
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	seed := flag.Int64("seed", 1, "dice seed, 0 for random")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	engine := game.NewEngine(logger, game.NewMemoryStore(), game.Options{
		RandomSeed:       *seed,
		AllowForcedRolls: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := server.NewHub(engine, logger)
	engine.SetNotificationHandler(hub.Notify)
	go hub.Run(ctx)

	demo, err := engine.CreateGame(ctx, state.Setup{Players: []state.PlayerSetup{
		{Name: "Alice", Color: "red"},
		{Name: "Bob", Color: "blue"},
		{Name: "Carol", Color: "white"},
		{Name: "Dave", Color: "orange"},
	}})
	if err != nil {
		logger.Fatal("failed to create demo game", zap.Error(err))
	}

	api := server.NewHTTPServer(engine, nil, gin.DebugMode, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/", api.Handler())

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("demo server failed", zap.Error(err))
		}
	}()

	logger.Info("demo server ready",
		zap.String("address", *addr),
		zap.String("game_id", demo.ID),
		zap.String("websocket", "/ws?game="+demo.ID),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
