package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/memeforge/internal/api"
	"github.com/timmy/memeforge/internal/api/handler"
	"github.com/timmy/memeforge/internal/api/middleware"
	"github.com/timmy/memeforge/internal/cache"
	"github.com/timmy/memeforge/internal/config"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/service"
	"github.com/timmy/memeforge/internal/source/imgflip"
	"github.com/timmy/memeforge/internal/storage"
)

func main() {
	appLogger := logger.NewFromEnv()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH points at the config file in production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx := context.Background()

	objectStorage, err := storage.NewStorage(&storage.Config{
		Type:           storage.StorageType(cfg.Storage.Type),
		Endpoint:       cfg.Storage.Endpoint,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		UseSSL:         cfg.Storage.UseSSL,
		Bucket:         cfg.Storage.Bucket,
		Region:         cfg.Storage.Region,
		PublicURL:      cfg.Storage.PublicURL,
		LocalRoot:      cfg.Storage.LocalRoot,
		LocalURLPrefix: cfg.Storage.LocalURLPrefix,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	templateCache, err := cache.New(cfg.Cache.Backend, db)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize cache")
	}
	if dbCache, ok := templateCache.(*cache.Database); ok {
		if purged, err := dbCache.PurgeExpired(ctx); err != nil {
			appLogger.WithError(err).Warn("Failed to purge expired cache entries")
		} else if purged > 0 {
			appLogger.WithField(logger.FieldCount, purged).Info("Purged expired cache entries")
		}
	}

	templateSource := imgflip.NewAdapter(&imgflip.Config{
		URL:     cfg.Provider.URL,
		Timeout: cfg.Provider.Timeout,
		Limit:   cfg.Provider.Limit,
	})

	templateRepo := repository.NewTemplateRepository(db)
	memeRepo := repository.NewSavedMemeRepository(db)

	templateService := service.NewTemplateService(templateCache, templateSource, templateRepo, &service.TemplateConfig{
		CacheKey: cfg.Cache.Key,
		CacheTTL: cfg.Cache.TTL,
	})
	memeService := service.NewMemeService(memeRepo, templateRepo, objectStorage, &service.MemeConfig{
		MaxTextLength:    cfg.Meme.MaxTextLength,
		DefaultFont:      cfg.Meme.DefaultFont,
		DefaultTextColor: cfg.Meme.DefaultTextColor,
	})

	opts := &api.RouterOptions{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		Editor: handler.EditorConfig{
			DefaultFont:      cfg.Meme.DefaultFont,
			DefaultTextColor: cfg.Meme.DefaultTextColor,
		},
		Logger: appLogger,
	}
	// local files are served by the app itself; object stores serve their own URLs
	if local, ok := objectStorage.(*storage.LocalStorage); ok {
		opts.MediaRoot = local.Root()
		opts.MediaPrefix = local.URLPrefix()
	}

	router := api.SetupRouter(&api.Services{
		Templates: templateService,
		Memes:     memeService,
		DB:        db,
	}, opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":     cfg.Server.Port,
			"mode":     cfg.Server.Mode,
			"storage":  cfg.Storage.Type,
			"cache":    cfg.Cache.Backend,
			"provider": templateSource.GetSourceID(),
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("Server exited")
}
