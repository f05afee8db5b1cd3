package source

import (
	"context"

	"github.com/timmy/memeforge/internal/domain"
)

// TemplateItem is a provider template with the extra metadata the importer keeps.
type TemplateItem struct {
	ExternalID string // provider-assigned ID
	URL        string // image URL
	Name       string
	Width      int
	Height     int
	BoxCount   int // caption boxes suggested by the provider
}

// Summary returns the client-facing projection of the item.
func (i TemplateItem) Summary() domain.TemplateSummary {
	return domain.TemplateSummary{ID: i.ExternalID, URL: i.URL, Name: i.Name}
}

// TemplateSource is an external provider of trending meme templates.
//
// Implementations degrade gracefully: transport failures, non-success
// statuses and malformed bodies are logged and reported as an empty result,
// never as an error. Callers cannot distinguish "provider unreachable" from
// "provider has no templates".
type TemplateSource interface {
	// GetSourceID returns the unique identifier for this provider.
	GetSourceID() string

	// FetchTemplates returns the provider's current templates in provider
	// order, bounded by the configured limit.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - []domain.TemplateSummary: normalized templates, empty on any failure.
	FetchTemplates(ctx context.Context) []domain.TemplateSummary

	// FetchItems is FetchTemplates with the provider metadata retained.
	FetchItems(ctx context.Context) []TemplateItem
}
