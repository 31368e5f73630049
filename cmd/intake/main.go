package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"time"

	"intake/internal/auth"
	"intake/internal/backend"
	"intake/internal/cache"
	"intake/internal/captcha"
	"intake/internal/cli"
	"intake/internal/config"
	"intake/internal/export"
	apphttp "intake/internal/http"
	"intake/internal/intake"
	applog "intake/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	provider, err := authProvider(ctx, cfg, result.Accounts)
	if err != nil {
		logger.Error("Failed to initialize auth provider", applog.FieldError, err, "provider", cfg.AuthProvider)
		os.Exit(1)
	}

	renderer, err := captcha.NewRenderer()
	if err != nil {
		logger.Error("Failed to load CAPTCHA fonts", applog.FieldError, err)
		os.Exit(1)
	}

	var archiver export.Archiver
	if cfg.ExportArchiveEnabled() {
		archiver, err = export.NewS3Archiver(ctx, export.S3Config{
			Bucket:    cfg.ExportS3Bucket,
			Region:    cfg.ExportS3Region,
			Endpoint:  cfg.ExportS3Endpoint,
			AccessKey: cfg.ExportS3AccessKey,
			SecretKey: cfg.ExportS3SecretKey,
		})
		if err != nil {
			logger.Error("Failed to initialize export archive", applog.FieldError, err, "bucket", cfg.ExportS3Bucket)
			os.Exit(1)
		}
		logger.Info("Export archive enabled", "bucket", cfg.ExportS3Bucket)
	}

	caches := cache.NewManager(logger)
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:                ":" + cfg.Port,
		AllowSelfRegister:   cfg.AllowSelfRegister,
		SubmitRatePerMinute: cfg.SubmitRatePerMinute,
		BrowserSessionMax:   cfg.FormSessionMax,
		BrowserSessionTTL:   cfg.FormSessionTTL,
	}, apphttp.Dependencies{
		Records:  result.Backend,
		Sessions: intake.NewStore(cfg.FormSessionMax, cfg.FormSessionTTL, nil),
		Pipeline: intake.NewPipeline(result.Backend, logger),
		Captcha:  renderer,
		Auth:     provider,
		Tokens:   auth.NewTokens(sessionSecret(cfg, logger), cfg.SessionTTL),
		Notifier: auth.NewNotifier(),
		Archiver: archiver,
		Caches:   caches,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	caches.StartCleanup(5 * time.Minute)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting intake server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth_provider", cfg.AuthProvider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

func authProvider(ctx context.Context, cfg *config.Config, accounts auth.AccountStore) (auth.Provider, error) {
	if cfg.AuthProvider == config.AuthFirebase {
		return auth.NewFirebaseProvider(ctx, cfg.FirebaseAPIKey)
	}
	return auth.NewLocalProvider(accounts), nil
}

// sessionSecret returns SESSION_SECRET or a random per-process key. With a
// random key every restart signs all operators out.
func sessionSecret(cfg *config.Config, logger *applog.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.Error("Failed to generate session secret", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Warn("SESSION_SECRET not set, using a random key; admin sessions end on restart")
	return secret
}
