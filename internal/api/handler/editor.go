package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeforge/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// EditorTemplates parses the embedded page templates for gin's HTML renderer.
func EditorTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// EditorConfig holds the editor page defaults.
type EditorConfig struct {
	Title            string
	MaxTextLength    int
	DefaultFont      string
	DefaultTextColor string
}

// EditorHandler renders the meme editor page.
type EditorHandler struct {
	templateService *service.TemplateService
	cfg             EditorConfig
}

// NewEditorHandler creates a new editor handler.
func NewEditorHandler(templateService *service.TemplateService, cfg EditorConfig) *EditorHandler {
	if cfg.Title == "" {
		cfg.Title = "Meme Generator"
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = service.DefaultMaxTextLength
	}
	if cfg.DefaultFont == "" {
		cfg.DefaultFont = service.DefaultFont
	}
	if cfg.DefaultTextColor == "" {
		cfg.DefaultTextColor = service.DefaultTextColor
	}
	return &EditorHandler{
		templateService: templateService,
		cfg:             cfg,
	}
}

// Index handles GET /. The template list is rendered as a gallery and again
// as JSON in the templates-data script element.
func (h *EditorHandler) Index(c *gin.Context) {
	templates := h.templateService.GetOrRefresh(c.Request.Context())

	c.HTML(http.StatusOK, "editor.html", gin.H{
		"Title":            h.cfg.Title,
		"Templates":        templates,
		"MaxTextLength":    h.cfg.MaxTextLength,
		"DefaultFont":      h.cfg.DefaultFont,
		"DefaultTextColor": h.cfg.DefaultTextColor,
	})
}
