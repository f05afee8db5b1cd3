package storage

import (
	"fmt"
	"strings"
)

// StorageType selects the ObjectStorage backend.
type StorageType string

const (
	StorageTypeLocal        StorageType = "local"
	StorageTypeR2           StorageType = "r2"
	StorageTypeS3           StorageType = "s3"
	StorageTypeS3Compatible StorageType = "s3compatible"
	StorageTypeMinIO        StorageType = "minio"
)

// Config is the backend-agnostic storage configuration.
type Config struct {
	Type           StorageType
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	Bucket         string
	Region         string
	PublicURL      string
	LocalRoot      string
	LocalURLPrefix string
}

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: storage configuration; an empty Type is detected from the endpoint,
//     and falls back to local disk when no endpoint is set.
// Returns:
//   - ObjectStorage: initialized storage implementation.
//   - error: non-nil if the storage client cannot be created.
func NewStorage(cfg *Config) (ObjectStorage, error) {
	storeType := cfg.Type
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	switch storeType {
	case StorageTypeLocal:
		return NewLocalStorage(&LocalConfig{
			Root:      cfg.LocalRoot,
			URLPrefix: cfg.LocalURLPrefix,
		})
	case StorageTypeMinIO:
		return NewMinIOStorage(&MinIOConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			PublicURL: cfg.PublicURL,
		})
	case StorageTypeS3, StorageTypeR2, StorageTypeS3Compatible:
		return NewS3Storage(&S3Config{
			Type:      storeType,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			PublicURL: cfg.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", storeType)
	}
}

// detectStorageType guesses the backend from the endpoint host.
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case endpoint == "":
		return StorageTypeLocal
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
