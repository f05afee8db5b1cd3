package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/memeforge/internal/api/handler"
	"github.com/timmy/memeforge/internal/api/middleware"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/service"
	"gorm.io/gorm"
)

// Services bundles what the handlers depend on.
type Services struct {
	Templates *service.TemplateService
	Memes     *service.MemeService
	DB        *gorm.DB // optional, used by /health
}

// RouterOptions configures the router.
type RouterOptions struct {
	Mode   string
	CORS   middleware.CORSConfig
	Editor handler.EditorConfig
	Logger *logger.Logger

	// MediaRoot is served under MediaPrefix when set (local storage only).
	MediaRoot   string
	MediaPrefix string
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(services *Services, opts *RouterOptions) *gin.Engine {
	if opts == nil {
		opts = &RouterOptions{}
	}

	switch opts.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(opts.Logger))
	r.Use(middleware.CORS(opts.CORS))

	r.SetHTMLTemplate(handler.EditorTemplates())

	// the page advertises the caption limit the service enforces
	editorCfg := opts.Editor
	if services.Memes != nil {
		editorCfg.MaxTextLength = services.Memes.MaxTextLength()
	}

	healthHandler := handler.NewHealthHandler(services.DB)
	editorHandler := handler.NewEditorHandler(services.Templates, editorCfg)
	templateHandler := handler.NewTemplateHandler(services.Templates)
	memeHandler := handler.NewMemeHandler(services.Memes)

	r.GET("/health", healthHandler.Health)

	r.GET("/", editorHandler.Index)
	r.GET("/fetch-memes/", templateHandler.FetchMemes)
	// every method reaches the handler so non-POST gets a JSON 400, not a 404
	r.Any("/save-meme/", memeHandler.SaveMeme)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/templates", templateHandler.ListTemplates)
		v1.GET("/memes/:id", memeHandler.GetMeme)
	}

	if opts.MediaRoot != "" {
		prefix := opts.MediaPrefix
		if prefix == "" {
			prefix = "/media"
		}
		r.Static(prefix, opts.MediaRoot)
	}

	return r
}
