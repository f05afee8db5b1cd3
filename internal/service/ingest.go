package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/source"
	"github.com/timmy/memeforge/internal/storage"
)

const defaultDownloadTimeout = 30 * time.Second

// templateNamespace scopes deterministic template IDs.
var templateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("memeforge/templates"))

// IngestService imports provider templates into the repository.
type IngestService struct {
	templateRepo *repository.TemplateRepository
	jobRepo      *repository.ImportJobRepository
	storage      storage.ObjectStorage
	client       *resty.Client
	logger       *logger.Logger
	workers      int
	category     string
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	Workers         int
	Category        string
	DownloadTimeout time.Duration
}

// NewIngestService creates a new ingest service
func NewIngestService(
	templateRepo *repository.TemplateRepository,
	jobRepo *repository.ImportJobRepository,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	if cfg == nil {
		cfg = &IngestConfig{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	category := cfg.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	if log == nil {
		log = logger.GetDefault()
	}

	client := resty.New()
	client.SetTimeout(timeout)

	return &IngestService{
		templateRepo: templateRepo,
		jobRepo:      jobRepo,
		storage:      objectStorage,
		client:       client,
		logger:       log,
		workers:      workers,
		category:     category,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// IngestStats holds statistics for an ingestion run
type IngestStats struct {
	JobID          string
	TotalItems     int64
	ProcessedItems int64
	SkippedItems   int64
	FailedItems    int64
	StartTime      time.Time
	EndTime        time.Time
}

// IngestOptions holds options for ingestion
type IngestOptions struct {
	Force    bool   // re-download templates that are already stored
	Category string // overrides the configured category
}

// IngestFromSource imports up to limit templates from src. limit <= 0 imports
// everything the provider returns.
func (s *IngestService) IngestFromSource(ctx context.Context, src source.TemplateSource, limit int, opts *IngestOptions) (*IngestStats, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	category := opts.Category
	if category == "" {
		category = s.category
	}

	stats := &IngestStats{
		StartTime: time.Now(),
	}
	job := s.startJob(ctx, src.GetSourceID(), stats)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldProvider: src.GetSourceID(),
		"limit":              limit,
		"force":              opts.Force,
	}).Info("Starting template import")

	items := src.FetchItems(ctx)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	stats.TotalItems = int64(len(items))

	itemsChan := make(chan source.TemplateItem, s.workers*2)
	resultsChan := make(chan *processResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, src.GetSourceID(), category, itemsChan, resultsChan, opts)
		}()
	}

	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			atomic.AddInt64(&stats.ProcessedItems, 1)
			if result.skipped {
				atomic.AddInt64(&stats.SkippedItems, 1)
			} else if result.err != nil {
				atomic.AddInt64(&stats.FailedItems, 1)
				s.log(ctx).WithFields(logger.Fields{
					"external_id": result.externalID,
				}).WithError(result.err).Error("Failed to import template")
			}
		}
		close(done)
	}()

feed:
	for _, item := range items {
		select {
		case itemsChan <- item:
		case <-ctx.Done():
			break feed
		}
	}

	close(itemsChan)
	wg.Wait()

	close(resultsChan)
	<-done

	stats.EndTime = time.Now()
	s.finishJob(ctx, job, stats, ctx.Err())

	s.log(ctx).WithFields(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
		"duration":  stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Template import completed")

	return stats, ctx.Err()
}

// startJob records the run when a job repository is configured. Job writes
// ignore cancellation of the run itself, and a failed write never blocks the
// import.
func (s *IngestService) startJob(ctx context.Context, sourceID string, stats *IngestStats) *domain.ImportJob {
	if s.jobRepo == nil {
		return nil
	}
	job := &domain.ImportJob{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Status:    domain.JobStatusRunning,
		StartedAt: &stats.StartTime,
	}
	if err := s.jobRepo.Create(context.WithoutCancel(ctx), job); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record import job")
		return nil
	}
	stats.JobID = job.ID
	return job
}

func (s *IngestService) finishJob(ctx context.Context, job *domain.ImportJob, stats *IngestStats, runErr error) {
	if job == nil {
		return
	}
	job.TotalItems = int(stats.TotalItems)
	job.ProcessedItems = int(stats.ProcessedItems)
	job.SkippedItems = int(stats.SkippedItems)
	job.FailedItems = int(stats.FailedItems)
	job.Finish(stats.EndTime, runErr)

	if err := s.jobRepo.Update(context.WithoutCancel(ctx), job); err != nil {
		s.log(ctx).WithField("job_id", job.ID).WithError(err).Warn("Failed to update import job")
	}
}

type processResult struct {
	externalID string
	skipped    bool
	err        error
}

func (s *IngestService) worker(ctx context.Context, sourceID, category string, items <-chan source.TemplateItem, results chan<- *processResult, opts *IngestOptions) {
	for item := range items {
		if ctx.Err() != nil {
			return
		}

		result := &processResult{externalID: item.ExternalID}

		exists, err := s.templateRepo.ExistsByExternalID(ctx, item.ExternalID)
		if err != nil {
			result.err = fmt.Errorf("failed to check existence: %w", err)
			results <- result
			continue
		}
		if exists && !opts.Force {
			result.skipped = true
			results <- result
			continue
		}

		result.err = s.processItem(ctx, sourceID, category, &item, exists)
		results <- result
	}
}

func (s *IngestService) processItem(ctx context.Context, sourceID, category string, item *source.TemplateItem, existed bool) error {
	if item.ExternalID == "" || item.URL == "" {
		return errors.New("provider item has no id or url")
	}

	data, err := s.download(ctx, item.URL)
	if err != nil {
		return err
	}

	// the provider's URL and content type are not trusted for what gets served
	info, err := SniffImage(data)
	if err != nil {
		return err
	}

	id := templateID(sourceID, item.ExternalID)
	key := fmt.Sprintf("%s%s.%s", storage.PrefixTemplates, id, info.Extension)

	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), info.ContentType); err != nil {
		return fmt.Errorf("failed to upload to storage: %w", err)
	}

	externalID := item.ExternalID
	tpl := &domain.Template{
		ID:         id,
		ExternalID: &externalID,
		Name:       truncateRunes(item.Name, 100),
		ImageKey:   key,
		ImageURL:   s.storage.GetURL(key),
		URL:        item.URL,
		IsGIF:      info.Format == "gif",
		Category:   category,
		Width:      info.Width,
		Height:     info.Height,
		CreatedAt:  time.Now(),
	}

	if err := s.templateRepo.Upsert(ctx, tpl); err != nil {
		// keys are deterministic; an existing record still points at this object
		if !existed {
			if delErr := s.storage.Delete(ctx, key); delErr != nil {
				s.log(ctx).WithField(logger.FieldStorageKey, key).WithError(delErr).Error("Failed to rollback storage upload")
			}
		}
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

func (s *IngestService) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, errors.New("failed to download image: empty body")
	}
	return body, nil
}

// templateID derives a stable record ID so re-imports overwrite in place.
func templateID(sourceID, externalID string) string {
	return uuid.NewSHA1(templateNamespace, []byte(sourceID+":"+externalID)).String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	i := 0
	for idx := range s {
		if i == max {
			return s[:idx]
		}
		i++
	}
	return s
}
