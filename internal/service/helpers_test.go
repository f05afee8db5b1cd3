package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/timmy/memeforge/internal/config"
	"github.com/timmy/memeforge/internal/domain"
	"github.com/timmy/memeforge/internal/repository"
	"github.com/timmy/memeforge/internal/source"
	"github.com/timmy/memeforge/internal/storage"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		AutoMigrate:  true,
		LogLevel:     "silent",
		MaxOpenConns: 1, // shared-cache sqlite rejects concurrent writers
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

func newTestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(&storage.LocalConfig{Root: t.TempDir(), URLPrefix: "/media"})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	return s
}

// pngBytes encodes a w x h image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func pngDataURI(t *testing.T, w, h int) string {
	return dataURI("image/png", pngBytes(t, w, h))
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

const htmlPage = "<html><script>alert(document.cookie)</script></html>"

// fakeSource is a TemplateSource returning a fixed list.
type fakeSource struct {
	mu    sync.Mutex
	items []source.TemplateItem
	calls int32
}

func (f *fakeSource) GetSourceID() string { return "fake" }

func (f *fakeSource) set(items []source.TemplateItem) {
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

func (f *fakeSource) FetchItems(ctx context.Context) []source.TemplateItem {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]source.TemplateItem, len(f.items))
	copy(out, f.items)
	return out
}

func (f *fakeSource) FetchTemplates(ctx context.Context) []domain.TemplateSummary {
	items := f.FetchItems(ctx)
	out := make([]domain.TemplateSummary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Summary())
	}
	return out
}

func (f *fakeSource) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

func sampleItems(n int) []source.TemplateItem {
	items := make([]source.TemplateItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, source.TemplateItem{
			ExternalID: fmt.Sprintf("%d", 100+i),
			URL:        fmt.Sprintf("https://i.example.com/%d.png", i),
			Name:       fmt.Sprintf("Template %d", i),
		})
	}
	return items
}

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("cache unavailable")
}

func (brokenCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache unavailable")
}

// flakyStorage wraps an ObjectStorage and can fail uploads.
type flakyStorage struct {
	storage.ObjectStorage
	failUpload bool
	deleted    []string
}

func (f *flakyStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if f.failUpload {
		return errors.New("disk full")
	}
	return f.ObjectStorage.Upload(ctx, key, reader, size, contentType)
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.ObjectStorage.Delete(ctx, key)
}
