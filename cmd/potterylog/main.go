package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"potterylog/internal/auth"
	"potterylog/internal/config"
	"potterylog/internal/db"
	"potterylog/internal/logging"
	"potterylog/internal/photostore/local"
	"potterylog/internal/service"
	"potterylog/internal/signedurl"
	"potterylog/internal/store"
	"potterylog/internal/vision"
	claudevision "potterylog/internal/vision/claude"
	"potterylog/internal/web"
)

func main() {
	loadDotenv()
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET_KEY is required")
		return
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	itemStore := store.NewItemStore(database)
	photoStore := store.NewPhotoStore(database)
	userStore := store.NewUserStore(database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := auth.EnsureBootstrapUser(ctx, userStore, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		logger.Error("failed to bootstrap admin user", "error", err)
		return
	}

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	catalog := service.NewCatalogService(
		itemStore,
		photoStore,
		photoStg,
		newCaptioner(cfg, logger),
		logger,
	)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenExpiryMinutes)*time.Minute)
	signer := signedurl.New(cfg.SignedURLSecret, time.Duration(cfg.SignedURLMinutes)*time.Minute, "/photos")

	server := web.NewServer(catalog, userStore, issuer, signer, cfg.MinFrontendVersion, logger)
	httpSrv := server.HTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}
}

// loadDotenv reads .env and the APP_ENV-specific overlay when present. Missing
// files are fine; deployed environments configure through real env vars.
func loadDotenv() {
	_ = godotenv.Load(".env")
	if env := os.Getenv("APP_ENV"); env != "" {
		_ = godotenv.Overload(".env." + env)
	}
}

func newCaptioner(cfg *config.Config, logger *slog.Logger) vision.Captioner {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude photo captioning", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeCaptioner(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	default:
		logger.Info("photo captioning disabled")
		return nil
	}
}
