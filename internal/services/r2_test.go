package services

import (
	"context"
	"testing"

	"asb-storefront/internal/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewR2Service_RequiresCredentials(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewR2Service(context.Background(), config.R2Config{BucketName: "asb-uploads"}, logger)
	assert.Error(t, err)
}

func TestR2Endpoint(t *testing.T) {
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", r2Endpoint(config.R2Config{AccountID: "acct"}))
	assert.Equal(t, "http://localhost:9000", r2Endpoint(config.R2Config{AccountID: "acct", Endpoint: "http://localhost:9000"}))
}

func TestR2Service_GetURL(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.R2Config{
		AccountID:       "acct",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "asb-uploads",
		Region:          "auto",
	}

	service, err := NewR2Service(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "https://pub-acct.r2.dev/2026/09/01/a.png", service.GetURL("/2026/09/01/a.png"))

	cfg.PublicURL = "https://cdn.asb.example.org/"
	service, err = NewR2Service(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.asb.example.org/2026/09/01/a.png", service.GetURL("2026/09/01/a.png"))
}
