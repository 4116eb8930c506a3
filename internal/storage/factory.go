package storage

import "github.com/drivesearch/drivesearch/internal/config"

// NewStorage creates an ObjectStorage instance from configuration.
// An empty endpoint selects the in-memory backend (demo mode).
func NewStorage(cfg *config.StorageConfig) (ObjectStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		publicURL := "memory://" + bucketOrDefault(cfg)
		if cfg != nil && cfg.PublicURL != "" {
			publicURL = cfg.PublicURL
		}
		return NewMemoryStorage(publicURL), nil
	}

	return NewS3Storage(&S3Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
}

func bucketOrDefault(cfg *config.StorageConfig) string {
	if cfg == nil || cfg.Bucket == "" {
		return "drivesearch"
	}
	return cfg.Bucket
}
