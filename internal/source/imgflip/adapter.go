package imgflip

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/source"
)

const (
	SourceID       = "imgflip"
	DefaultURL     = "https://api.imgflip.com/get_memes"
	DefaultTimeout = 5 * time.Second
	DefaultLimit   = 100
)

// Config holds configuration for the Imgflip adapter.
type Config struct {
	URL     string
	Timeout time.Duration
	Limit   int // <= 0 means no bound
}

// Adapter implements source.TemplateSource against the Imgflip get_memes API.
type Adapter struct {
	client *resty.Client
	url    string
	limit  int
}

var _ source.TemplateSource = (*Adapter)(nil)

// NewAdapter creates a new Imgflip adapter.
// Parameters:
//   - cfg: endpoint, timeout and result bound; zero values use the defaults.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(cfg *Config) *Adapter {
	if cfg == nil {
		cfg = &Config{}
	}
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	return &Adapter{
		client: client,
		url:    url,
		limit:  cfg.Limit,
	}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// getMemesResponse mirrors the provider envelope. Success is a pointer so an
// absent flag is distinguishable from false.
type getMemesResponse struct {
	Success *bool `json:"success"`
	Data    *struct {
		Memes []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			URL      string `json:"url"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			BoxCount int    `json:"box_count"`
		} `json:"memes"`
	} `json:"data"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// FetchTemplates returns up to limit templates in provider order, or an
// empty slice if the provider cannot be reached or answers badly.
func (a *Adapter) FetchTemplates(ctx context.Context) []domain.TemplateSummary {
	items := a.FetchItems(ctx)
	templates := make([]domain.TemplateSummary, 0, len(items))
	for _, item := range items {
		templates = append(templates, item.Summary())
	}
	return templates
}

// FetchItems returns up to limit provider items in provider order.
func (a *Adapter) FetchItems(ctx context.Context) []source.TemplateItem {
	start := time.Now()
	log := logger.FromContext(ctx).WithField(logger.FieldProvider, SourceID)

	var body getMemesResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&body).
		ForceContentType("application/json").
		Get(a.url)
	if err != nil {
		log.WithError(err).Error("Error fetching memes from Imgflip API")
		return []source.TemplateItem{}
	}

	if resp.StatusCode() != http.StatusOK {
		log.WithField(logger.FieldStatus, resp.StatusCode()).Warn("Imgflip API returned non-OK status")
		return []source.TemplateItem{}
	}

	if body.Success == nil || !*body.Success || body.Data == nil {
		log.WithField("error_message", body.ErrorMessage).Warn("Imgflip API reported failure or malformed body")
		return []source.TemplateItem{}
	}

	memes := body.Data.Memes
	if a.limit > 0 && len(memes) > a.limit {
		memes = memes[:a.limit]
	}

	items := make([]source.TemplateItem, 0, len(memes))
	for _, m := range memes {
		items = append(items, source.TemplateItem{
			ExternalID: m.ID,
			URL:        m.URL,
			Name:       m.Name,
			Width:      m.Width,
			Height:     m.Height,
			BoxCount:   m.BoxCount,
		})
	}

	logger.With(logger.Fields{
		logger.FieldProvider: SourceID,
		logger.FieldCount:    len(items),
	}).WithDuration(start).Info(ctx, "Fetched templates from Imgflip")

	return items
}
