package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/catanforge/catan-server-go/internal/config"
	"github.com/catanforge/catan-server-go/internal/game"
	"github.com/catanforge/catan-server-go/internal/repository"
	"github.com/catanforge/catan-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting catan server",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var (
		store game.Store
		users server.UserDirectory
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stat()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
		store = repository.NewGameRepository(db)
		users = repository.NewUserRepository(db)
	default:
		logger.Warn("using in-memory storage; games are lost on restart")
		store = game.NewMemoryStore()
	}

	engine := game.NewEngine(logger, store, game.Options{
		AllowForcedRolls: cfg.Game.AllowForcedRolls,
		RandomSeed:       cfg.Game.RandomSeed,
		WinningPoints:    cfg.Game.WinningPoints,
		DiscardLimit:     cfg.Game.DiscardLimit,
		ReplayDir:        cfg.Game.ReplayDir,
	})

	quarantined, err := engine.RestoreAll(ctx)
	if err != nil {
		logger.Fatal("failed to restore games", zap.Error(err))
	}
	for _, id := range quarantined {
		logger.Warn("game quarantined on restore",
			zap.String("game_id", id),
			zap.Error(engine.Quarantined(id)),
		)
	}
	logger.Info("games restored",
		zap.Int("games", len(engine.Games())),
		zap.Int("quarantined", len(quarantined)),
	)

	hub := server.NewHub(engine, logger)
	engine.SetNotificationHandler(hub.Notify)
	go hub.Run(ctx)

	grpcServer := server.NewGRPCServer(cfg.Server.GRPC, server.NewGameService(engine, logger), logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	httpServer := server.NewHTTPServer(engine, users, cfg.Server.HTTP.Mode, logger).NewServer(cfg.Server.HTTP)
	wsServer := server.NewWebSocketServer(cfg.Server.WebSocket, hub)
	for name, srv := range map[string]*http.Server{"HTTP": httpServer, "WebSocket": wsServer} {
		go func(name string, srv *http.Server) {
			logger.Info("starting "+name+" server", zap.String("address", srv.Addr))
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error(name+" server error", zap.Error(serveErr))
			}
		}(name, srv)
	}

	logger.Info("catan server initialized",
		zap.String("version", version),
		zap.String("http_address", cfg.Server.HTTP.Address),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	cancel()

	logger.Info("catan server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
