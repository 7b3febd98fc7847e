package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"threadhub/internal/broker"
	"threadhub/internal/core"
	"threadhub/internal/identity"
	httpProtocol "threadhub/internal/protocols/http"
	wsProtocol "threadhub/internal/protocols/websocket"
	"threadhub/internal/repository"
	"threadhub/pkg/config"
	"threadhub/pkg/database"
	"threadhub/pkg/logger"
)

func main() {
	configPath := flag.StringP("config", "c", "./configs/development.yaml", "path to the server config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	logger.Info("Starting threadhub development backend...")
	if cfg.InsecureSecret() {
		logger.Warn("Using the built-in JWT secret; set THREADHUB_JWT_SECRET outside local development")
	}

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	if err := db.Migrate(ctx); err != nil {
		cancel()
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	cancel()
	logger.Infof("Connected to %s database", db.Driver())

	var cache repository.CommentCache = repository.NopCache{}
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		redisCache, err := repository.NewRedisCache(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logger.Warnf("Comment cache disabled: %v", err)
		} else {
			cache = redisCache
			logger.Infof("Comment cache enabled at %s", cfg.Redis.Addr)
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	// Live events
	hub := wsProtocol.NewHub()

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Database.Timeout)
	sink, err := broker.New(ctx, cfg.Events)
	cancel()
	if err != nil {
		logger.Warnf("Event broker disabled: %v", err)
		sink = broker.Nop{}
	}
	events := core.Publishers(hub, sink)

	// Core services
	issuer := identity.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	authSvc := core.NewAuthService(userRepo, issuer)
	commentSvc := core.NewCommentService(commentRepo, cache, events, core.CommentOptions{
		MaxDepth:         cfg.Comments.MaxDepth,
		MaxContentLength: cfg.Comments.MaxContentLength,
	})
	reactionSvc := core.NewReactionService(reactionRepo, commentRepo, cache, events)

	server := httpProtocol.NewServer(httpProtocol.Services{
		Auth:      authSvc,
		Comments:  commentSvc,
		Reactions: reactionSvc,
		Events:    wsProtocol.NewHandler(hub, authSvc, cfg.Server.AllowedOrigins),
		Health:    db,
	}, cfg.Server.Debug)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("HTTP server panic recovered: %v", r)
			}
		}()
		logger.Infof("Starting HTTP server on %s", cfg.Server.Addr)
		if err := server.Start(cfg.Server.Addr); err != nil {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
	hub.Stop()
	if err := sink.Close(); err != nil {
		logger.Warnf("Event broker close error: %v", err)
	}

	logger.Info("Server stopped")
}
