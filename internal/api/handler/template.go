package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/service"
)

// TemplateHandler serves template lists as JSON.
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new template handler.
// Parameters:
//   - templateService: template service instance.
// Returns:
//   - *TemplateHandler: initialized handler.
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// FetchMemes handles GET /fetch-memes/. The envelope always reports success;
// an unreachable provider shows up as an empty list.
func (h *TemplateHandler) FetchMemes(c *gin.Context) {
	templates := h.templateService.GetOrRefresh(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"memes": templates,
		},
	})
}

// ListTemplates handles GET /api/v1/templates.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	category := c.Query("category")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.templateService.ListStored(c.Request.Context(), category, limit, offset)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list templates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list templates: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
