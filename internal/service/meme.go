package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/logger"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/storage"
)

const (
	DefaultMaxTextLength = 200
	DefaultFont          = "Impact"
	DefaultTextColor     = "#ffffff"
)

// ErrMissingFields is returned when a save request lacks the template URL or
// the image payload.
var ErrMissingFields = errors.New("template url and image data are required")

// ValidationError reports a request field that failed a boundary check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SaveMemeRequest is the typed body of a save request. The validate tags
// hold the fixed limits (column sizes); caption limits come from MemeConfig.
type SaveMemeRequest struct {
	TemplateURL string `json:"template_url"`
	TemplateID  string `json:"template_id"`
	TopText     string `json:"top_text"`
	BottomText  string `json:"bottom_text"`
	Font        string `json:"font" validate:"max=50"`
	TextColor   string `json:"text_color" validate:"max=10"`
	ImageData   string `json:"image_data"`
}

// SaveResult is returned by a successful save.
type SaveResult struct {
	ID      string
	MemeURL string
	Meme    *domain.SavedMeme
}

// MemeConfig holds configuration for the meme service.
type MemeConfig struct {
	MaxTextLength    int
	DefaultFont      string
	DefaultTextColor string
}

// MemeService persists user-composed memes.
type MemeService struct {
	memeRepo     *repository.SavedMemeRepository
	templateRepo *repository.TemplateRepository
	storage      storage.ObjectStorage
	validate     *validator.Validate
	maxText      int
	font         string
	textColor    string
}

// NewMemeService creates a new meme service.
func NewMemeService(
	memeRepo *repository.SavedMemeRepository,
	templateRepo *repository.TemplateRepository,
	objectStorage storage.ObjectStorage,
	cfg *MemeConfig,
) *MemeService {
	if cfg == nil {
		cfg = &MemeConfig{}
	}
	maxText := cfg.MaxTextLength
	if maxText <= 0 || maxText > DefaultMaxTextLength {
		maxText = DefaultMaxTextLength
	}
	font := cfg.DefaultFont
	if font == "" {
		font = DefaultFont
	}
	color := cfg.DefaultTextColor
	if color == "" {
		color = DefaultTextColor
	}
	return &MemeService{
		memeRepo:     memeRepo,
		templateRepo: templateRepo,
		storage:      objectStorage,
		validate:     newRequestValidator(),
		maxText:      maxText,
		font:         font,
		textColor:    color,
	}
}

// newRequestValidator reports fields by their JSON names.
func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MaxTextLength is the caption limit Save enforces.
func (s *MemeService) MaxTextLength() int {
	return s.maxText
}

// Validate runs the checks that must pass before anything is written.
// Missing fields are reported ahead of length violations.
func (s *MemeService) Validate(req *SaveMemeRequest) error {
	if strings.TrimSpace(req.TemplateURL) == "" || strings.TrimSpace(req.ImageData) == "" {
		return ErrMissingFields
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"top_text", req.TopText},
		{"bottom_text", req.BottomText},
	} {
		if utf8.RuneCountInString(f.value) > s.maxText {
			return &ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("%s must be at most %d characters", f.name, s.maxText),
			}
		}
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return err
		}
		fe := verrs[0]
		msg := fmt.Sprintf("%s is invalid", fe.Field())
		if fe.Tag() == "max" {
			msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return &ValidationError{Field: fe.Field(), Message: msg}
	}
	return nil
}

// Save decodes the image payload, stores it under user_memes/ and records a
// SavedMeme. The upload and the insert share one transaction; when the insert
// or the commit fails the uploaded object is removed again.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: validated request.
// Returns:
//   - *SaveResult: the new record and its public URL.
//   - error: ErrMissingFields or *ValidationError for bad input,
//     ErrInvalidDataURI for a payload that is not a supported image, or a
//     storage/database error.
func (s *MemeService) Save(ctx context.Context, req *SaveMemeRequest) (*SaveResult, error) {
	start := time.Now()
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	payload, err := DecodeDataURI(req.ImageData)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("%s%s.%s", storage.PrefixUserMemes, id, payload.Image.Extension)
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldMemeID:     id,
		logger.FieldStorageKey: key,
	})

	meme := &domain.SavedMeme{
		ID:          id,
		TemplateURL: req.TemplateURL,
		ImageKey:    key,
		ImageURL:    s.storage.GetURL(key),
		TopText:     req.TopText,
		BottomText:  req.BottomText,
		Font:        withDefault(req.Font, s.font),
		TextColor:   withDefault(req.TextColor, s.textColor),
		Format:      payload.Image.Format,
		Width:       payload.Image.Width,
		Height:      payload.Image.Height,
		FileSize:    int64(len(payload.Data)),
		CreatedAt:   time.Now(),
	}

	templateID, err := s.linkTemplate(ctx, req)
	if err != nil {
		return nil, err
	}
	meme.TemplateID = templateID

	contentType := payload.Image.ContentType

	uploaded := false
	err = s.memeRepo.Transaction(ctx, func(repo *repository.SavedMemeRepository) error {
		if err := s.storage.Upload(ctx, key, bytes.NewReader(payload.Data), int64(len(payload.Data)), contentType); err != nil {
			return fmt.Errorf("failed to store image: %w", err)
		}
		uploaded = true
		if err := repo.Create(ctx, meme); err != nil {
			return fmt.Errorf("failed to save meme: %w", err)
		}
		return nil
	})
	if err != nil {
		if uploaded {
			if delErr := s.storage.Delete(ctx, key); delErr != nil {
				logger.CtxError(ctx, "Failed to rollback storage upload: %v", delErr)
			}
		}
		return nil, err
	}

	logger.With(logger.Fields{logger.FieldStatus: "saved"}).
		WithSize(len(payload.Data)).
		WithDuration(start).
		Info(ctx, "Meme saved")

	return &SaveResult{ID: id, MemeURL: meme.ImageURL, Meme: meme}, nil
}

// GetMeme returns a saved meme by ID, or repository.ErrNotFound.
func (s *MemeService) GetMeme(ctx context.Context, id string) (*domain.SavedMeme, error) {
	return s.memeRepo.GetByID(ctx, id)
}

// linkTemplate resolves the stored template a request was built from. A
// request built from an ad-hoc URL links to nothing.
func (s *MemeService) linkTemplate(ctx context.Context, req *SaveMemeRequest) (*string, error) {
	if s.templateRepo == nil {
		return nil, nil
	}

	tpl, err := s.templateRepo.GetByURL(ctx, req.TemplateURL)
	if err == nil {
		return &tpl.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up template: %w", err)
	}

	if req.TemplateID == "" {
		return nil, nil
	}
	tpl, err = s.templateRepo.GetByExternalID(ctx, req.TemplateID)
	if err == nil {
		return &tpl.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up template: %w", err)
	}
	return nil, nil
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
