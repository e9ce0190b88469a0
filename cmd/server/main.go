package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rpggio/appforge/internal/artifacts"
	"github.com/rpggio/appforge/internal/builder"
	"github.com/rpggio/appforge/internal/config"
	"github.com/rpggio/appforge/internal/domain/activity"
	"github.com/rpggio/appforge/internal/domain/build"
	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/signing"
	"github.com/rpggio/appforge/internal/sqlite"
	"github.com/rpggio/appforge/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	projectRepo := sqlite.NewProjectRepository(db)
	buildRepo := sqlite.NewBuildRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	signingCache := signing.NewCache(projectRepo)
	defer signingCache.Close()

	var mirror artifacts.Mirror
	if cfg.Mirror.Enabled {
		minioMirror, err := artifacts.NewMinioMirror(artifacts.MirrorConfig{
			Endpoint:  cfg.Mirror.Endpoint,
			AccessKey: cfg.Mirror.AccessKey,
			SecretKey: cfg.Mirror.SecretKey,
			Bucket:    cfg.Mirror.Bucket,
			UseSSL:    cfg.Mirror.UseSSL,
		})
		if err != nil {
			logger.Error("failed to create artifact mirror", "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := minioMirror.EnsureBucket(ctx); err != nil {
			logger.Warn("artifact mirror bucket check failed", "error", err)
		}
		cancel()
		mirror = minioMirror
	}
	artifactStore := artifacts.NewStore(cfg.Build.ArtifactDir, mirror, logger)

	orchestrator := builder.NewOrchestrator(
		buildRepo,
		builder.NewMaterializer(),
		builder.NewToolchain(builder.NewExecRunner(), cfg.Build.StageTimeout),
		signingCache,
		artifactStore,
		cfg.Build.WorkspaceRoot,
		logger,
	)

	projectSvc := project.NewService(projectRepo, signingCache, logger)
	activitySvc := activity.NewService(activityRepo, logger)
	buildSvc := build.NewService(buildRepo, projectSvc, orchestrator, activitySvc, logger, cfg.Build.MaxConcurrent)
	defer buildSvc.Close()

	resolver := &apiKeyResolver{db: db}
	router := transport.NewServer(projectSvc, buildSvc, activitySvc, logger, transport.AuthMiddleware(resolver))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveTenant(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var tenantID string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&tenantID)
	if err != nil || tenantID == "" {
		return "", fmt.Errorf("unauthorized: invalid token")
	}
	return tenantID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
