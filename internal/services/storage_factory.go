package services

import (
	"context"
	"fmt"
	"time"

	"asb-storefront/internal/config"

	"github.com/sirupsen/logrus"
)

// StorageFactory creates storage services with proper fallback configuration
type StorageFactory struct {
	config *config.Config
	logger logrus.FieldLogger
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config, logger logrus.FieldLogger) *StorageFactory {
	return &StorageFactory{config: cfg, logger: logger}
}

// CreateLocalStorage creates the local upload directory storage
func (f *StorageFactory) CreateLocalStorage() (*LocalStorageService, error) {
	return NewLocalStorageService(f.config.Upload.LocalDir, f.config.Upload.BaseURL, f.logger)
}

// CreateStorageService returns bucket storage backed by the local directory
// when R2 is configured and reachable, and the local directory alone
// otherwise
func (f *StorageFactory) CreateStorageService(ctx context.Context, local *LocalStorageService) StorageService {
	if !f.config.R2.Configured() {
		f.logger.Info("R2 not configured, storing uploads locally")
		return local
	}

	r2Service, err := NewR2Service(ctx, f.config.R2, f.logger)
	if err != nil {
		f.logger.WithError(err).Warn("R2 service unavailable, using local storage only")
		return local
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := r2Service.HealthCheck(checkCtx); err != nil {
		f.logger.WithError(err).Warn("R2 health check failed, using local storage only")
		return local
	}

	f.logger.WithField("bucket", f.config.R2.BucketName).Info("R2 storage service initialized")
	return NewStorageServiceWithFallback(r2Service, local, f.logger)
}

// SetupR2Bucket creates the configured bucket and its CORS rules
func (f *StorageFactory) SetupR2Bucket(ctx context.Context) error {
	if err := f.ValidateR2Configuration(); err != nil {
		return err
	}

	r2Service, err := NewR2Service(ctx, f.config.R2, f.logger)
	if err != nil {
		return fmt.Errorf("failed to create R2 service: %w", err)
	}

	if err := r2Service.EnsureBucket(ctx, f.config.Server.AllowedOrigins); err != nil {
		return err
	}

	f.logger.WithField("bucket", f.config.R2.BucketName).Info("R2 bucket configured")
	return nil
}

// ValidateR2Configuration validates the R2 configuration
func (f *StorageFactory) ValidateR2Configuration() error {
	cfg := f.config.R2

	if cfg.AccountID == "" && cfg.Endpoint == "" {
		return fmt.Errorf("R2_ACCOUNT_ID or R2_ENDPOINT is required")
	}
	if cfg.AccessKeyID == "" {
		return fmt.Errorf("R2_ACCESS_KEY_ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return fmt.Errorf("R2_SECRET_ACCESS_KEY is required")
	}
	if cfg.BucketName == "" {
		return fmt.Errorf("R2_BUCKET_NAME is required")
	}

	return nil
}

// GetStorageInfo describes the configured storage for the health endpoint
func (f *StorageFactory) GetStorageInfo() map[string]interface{} {
	return map[string]interface{}{
		"r2_configured": f.config.R2.Configured(),
		"bucket_name":   f.config.R2.BucketName,
		"local_dir":     f.config.Upload.LocalDir,
	}
}
