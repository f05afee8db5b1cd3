package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/memeforge/internal/config"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/service"
	"github.com/timmy/memeforge/internal/source"
	"github.com/timmy/memeforge/internal/source/imgflip"
	"github.com/timmy/memeforge/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		Output:      os.Stdout,
		ServiceName: "memeforge-import",
	})
	logger.SetDefaultLogger(appLogger)

	sourceType := flag.String("source", imgflip.SourceID, "Template provider to import from")
	limit := flag.Int("limit", 100, "Maximum number of templates to import (0 for all)")
	category := flag.String("category", "", "Category assigned to imported templates")
	workers := flag.Int("workers", 0, "Concurrent downloads (0 uses the config value)")
	force := flag.Bool("force", false, "Re-import templates that are already stored")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"source": *sourceType,
		"limit":  *limit,
		"force":  *force,
	}).Info("Starting import")

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	importWorkers := cfg.Importer.Workers
	if *workers > 0 {
		importWorkers = *workers
	}

	ingestService := service.NewIngestService(
		repository.NewTemplateRepository(db),
		repository.NewImportJobRepository(db),
		objectStorage,
		appLogger,
		&service.IngestConfig{
			Workers:  importWorkers,
			Category: cfg.Importer.Category,
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	var src source.TemplateSource
	switch *sourceType {
	case imgflip.SourceID:
		// the importer wants the whole list, the limit flag bounds it instead
		src = imgflip.NewAdapter(&imgflip.Config{
			URL:     cfg.Provider.URL,
			Timeout: cfg.Provider.Timeout,
		})
	default:
		appLogger.WithField("source", *sourceType).Fatal("Unknown source type")
	}

	stats, err := ingestService.IngestFromSource(ctx, src, *limit, &service.IngestOptions{
		Force:    *force,
		Category: *category,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Import interrupted")
	}
	appLogger.WithFields(logger.Fields{
		"job_id":    stats.JobID,
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
	}).Info("Import completed")
}
