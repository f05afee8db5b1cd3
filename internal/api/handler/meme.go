package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/service"
)

const (
	msgInvalidRequest = "Invalid request"
	msgMissingFields  = "Template URL and image data are required"
	msgSaved          = "Meme saved successfully"
)

// MemeHandler handles saving and reading user memes.
type MemeHandler struct {
	memeService *service.MemeService
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - memeService: meme service instance.
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(memeService *service.MemeService) *MemeHandler {
	return &MemeHandler{
		memeService: memeService,
	}
}

// SaveMeme handles /save-meme/. Only POST is accepted.
//
// Client errors (wrong method, malformed body, missing or oversized fields)
// are 400. Everything else, including an undecodable image payload, is 500
// with the error text.
func (h *MemeHandler) SaveMeme(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	// field checks belong to the service; binding only parses the body
	var req service.SaveMemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Rejecting malformed save request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	result, err := h.memeService.Save(ctx, &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		default:
			logger.CtxError(ctx, "Failed to save meme: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  msgSaved,
		"meme_url": result.MemeURL,
		"id":       result.ID,
	})
}

// GetMeme handles GET /api/v1/memes/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *MemeHandler) GetMeme(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Meme ID is required",
		})
		return
	}

	meme, err := h.memeService.GetMeme(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Meme not found",
			})
			return
		}
		logger.CtxError(c.Request.Context(), "Failed to load meme %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, meme)
}
