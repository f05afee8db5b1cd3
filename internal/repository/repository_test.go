package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/memeforge/internal/config"
	"github.com/timmy/memeforge/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		AutoMigrate: true,
		LogLevel:    "silent",
	})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func TestTemplateRepository_UpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestDB(t))

	tpl := &domain.Template{
		ID:         uuid.NewString(),
		ExternalID: strPtr("181913649"),
		Name:       "Drake Hotline Bling",
		URL:        "https://i.imgflip.com/30b1gx.jpg",
	}
	if err := repo.Upsert(ctx, tpl); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByURL(ctx, "https://i.imgflip.com/30b1gx.jpg")
	if err != nil {
		t.Fatalf("GetByURL: %v", err)
	}
	if got.Name != "Drake Hotline Bling" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Category != domain.DefaultCategory {
		t.Errorf("category = %q, want %q", got.Category, domain.DefaultCategory)
	}

	// Same external id updates in place
	again := &domain.Template{
		ID:         uuid.NewString(),
		ExternalID: strPtr("181913649"),
		Name:       "Drake",
		URL:        "https://i.imgflip.com/30b1gx.jpg",
	}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	count, err := repo.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	byExt, err := repo.GetByExternalID(ctx, "181913649")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if byExt.Name != "Drake" {
		t.Errorf("name after upsert = %q, want Drake", byExt.Name)
	}

	exists, err := repo.ExistsByExternalID(ctx, "181913649")
	if err != nil || !exists {
		t.Errorf("ExistsByExternalID = %v, %v", exists, err)
	}
}

func TestTemplateRepository_RejectsTemplateWithoutSource(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))

	err := repo.Upsert(context.Background(), &domain.Template{ID: uuid.NewString(), Name: "nothing"})
	if !errors.Is(err, domain.ErrTemplateSourceMissing) {
		t.Errorf("Upsert error = %v, want ErrTemplateSourceMissing", err)
	}
}

func TestTemplateRepository_ListByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestDB(t))

	seed := []domain.Template{
		{ID: uuid.NewString(), ExternalID: strPtr("1"), Name: "a", URL: "http://x/a.png"},
		{ID: uuid.NewString(), ExternalID: strPtr("2"), Name: "b", URL: "http://x/b.gif", IsGIF: true, Category: "animated"},
		{ID: uuid.NewString(), ExternalID: strPtr("3"), Name: "c", URL: "http://x/c.png"},
	}
	for i := range seed {
		if err := repo.Upsert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		category string
		want     int
	}{
		{"", 3},
		{"general", 2},
		{"animated", 1},
		{"stickers", 0},
	}
	for _, tc := range tests {
		t.Run("category="+tc.category, func(t *testing.T) {
			got, err := repo.List(ctx, tc.category, 10, 0)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("len = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestTemplateRepository_NotFound(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))

	if _, err := repo.GetByURL(context.Background(), "http://nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByURL error = %v, want ErrNotFound", err)
	}
}

func TestSavedMemeRepository_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedMemeRepository(newTestDB(t))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx *SavedMemeRepository) error {
		if err := tx.Create(ctx, &domain.SavedMeme{
			ID:       uuid.NewString(),
			ImageKey: "user_memes/x.png",
			ImageURL: "/media/user_memes/x.png",
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction error = %v, want boom", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count after rollback = %d, want 0", count)
	}
}

func TestSavedMemeRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSavedMemeRepository(newTestDB(t))

	meme := &domain.SavedMeme{
		ID:          uuid.NewString(),
		TemplateURL: "http://example.com/t.png",
		ImageKey:    "user_memes/a.png",
		ImageURL:    "/media/user_memes/a.png",
		TopText:     "HELLO",
		Font:        "Impact",
		TextColor:   "#ffffff",
	}
	if err := repo.Create(ctx, meme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, meme.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TopText != "HELLO" || got.TemplateID != nil {
		t.Errorf("got %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestImportJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewImportJobRepository(newTestDB(t))

	started := time.Now()
	job := &domain.ImportJob{
		ID:        uuid.NewString(),
		SourceID:  "imgflip",
		Status:    domain.JobStatusRunning,
		StartedAt: &started,
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	job.TotalItems = 3
	job.ProcessedItems = 3
	job.FailedItems = 1
	job.Finish(time.Now(), errors.New("interrupted"))
	if err := repo.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.JobStatusFailed || got.ErrorLog != "interrupted" || got.FailedItems != 1 {
		t.Errorf("job = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not stored")
	}

	jobs, err := repo.ListRecent(ctx, 10)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ListRecent = %d jobs, err %v", len(jobs), err)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) err = %v, want ErrNotFound", err)
	}
}
