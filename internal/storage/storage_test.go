package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(&LocalConfig{Root: t.TempDir(), URLPrefix: "/media/"})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	key := PrefixUserMemes + "abc.png"
	data := []byte("\x89PNG fake bytes")

	if err := s.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := s.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}

	rc, err := s.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, data) {
		t.Errorf("Download = %q, want %q", got, data)
	}

	if url := s.GetURL(key); url != "/media/user_memes/abc.png" {
		t.Errorf("GetURL = %q", url)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if exists, _ := s.Exists(ctx, key); exists {
		t.Error("object still exists after Delete")
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("Delete of missing object: %v", err)
	}
}

func TestLocalStorage_EnsureBucketCreatesPrefixes(t *testing.T) {
	s := newLocal(t)
	for _, dir := range []string{PrefixTemplates, PrefixUserMemes} {
		info, err := os.Stat(filepath.Join(s.Root(), dir))
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestLocalStorage_KeysStayUnderRoot(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	if err := s.Upload(ctx, "../../escape.txt", bytes.NewReader([]byte("x")), 1, "text/plain"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "escape.txt")); err != nil {
		t.Errorf("object not written under root: %v", err)
	}
	if err := s.Upload(ctx, "", bytes.NewReader(nil), 0, ""); err == nil {
		t.Error("empty key should be rejected")
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"", StorageTypeLocal},
		{"https://acct.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.us-west-2.amazonaws.com", StorageTypeS3},
		{"localhost:9000", StorageTypeS3Compatible},
	}
	for _, tc := range tests {
		t.Run(tc.endpoint, func(t *testing.T) {
			if got := detectStorageType(tc.endpoint); got != tc.want {
				t.Errorf("detectStorageType(%q) = %s, want %s", tc.endpoint, got, tc.want)
			}
		})
	}
}

func TestNewStorage_PublicURLs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "local",
			cfg:  Config{Type: StorageTypeLocal, LocalRoot: t.TempDir(), LocalURLPrefix: "/media"},
			want: "/media/user_memes/a.png",
		},
		{
			name: "s3 compatible without public url",
			cfg:  Config{Type: StorageTypeS3Compatible, Endpoint: "http://localhost:9000/", Bucket: "memes", AccessKey: "k", SecretKey: "s"},
			want: "http://localhost:9000/memes/user_memes/a.png",
		},
		{
			name: "r2 with public url",
			cfg:  Config{Type: StorageTypeR2, Endpoint: "acct.r2.cloudflarestorage.com", Bucket: "memes", PublicURL: "https://cdn.example.com/", AccessKey: "k", SecretKey: "s"},
			want: "https://cdn.example.com/user_memes/a.png",
		},
		{
			name: "minio",
			cfg:  Config{Type: StorageTypeMinIO, Endpoint: "localhost:9000", Bucket: "memes", AccessKey: "k", SecretKey: "s"},
			want: "http://localhost:9000/memes/user_memes/a.png",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewStorage(&tc.cfg)
			if err != nil {
				t.Fatalf("NewStorage: %v", err)
			}
			if got := s.GetURL(PrefixUserMemes + "a.png"); got != tc.want {
				t.Errorf("GetURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewStorage_UnknownType(t *testing.T) {
	if _, err := NewStorage(&Config{Type: "ftp"}); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
