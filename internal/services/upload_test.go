package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asb-storefront/internal/models"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploadService(t *testing.T, maxBytes int64) (*UploadService, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	local, err := NewLocalStorageService(dir, "/uploads", logger)
	require.NoError(t, err)

	service := NewUploadService(local, UploadOptions{
		MaxBytes:     maxBytes,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"},
	}, logger)
	return service, dir
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadService_ImageGetsThumbnail(t *testing.T) {
	service, dir := newTestUploadService(t, 5<<20)
	data := testPNG(t, 640, 480)

	file, err := service.Upload(context.Background(), bytes.NewReader(data), "poster.png")
	require.NoError(t, err)

	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, "poster.png", file.OriginalName)
	assert.Equal(t, int64(len(data)), file.Size)
	assert.True(t, strings.HasPrefix(file.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(file.Filename, ".png"))
	require.NotEmpty(t, file.ThumbnailURL)
	assert.True(t, strings.HasSuffix(file.ThumbnailURL, "_thumb.png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(file.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	thumb, err := imaging.Open(filepath.Join(dir, strings.TrimPrefix(file.ThumbnailURL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, ThumbnailHeight, thumb.Bounds().Dy())
}

func TestUploadService_PDFHasNoThumbnail(t *testing.T) {
	service, _ := newTestUploadService(t, 5<<20)
	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

	file, err := service.Upload(context.Background(), bytes.NewReader(pdf), "../../minutes.pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.MimeType)
	assert.Equal(t, "minutes.pdf", file.OriginalName)
	assert.Empty(t, file.ThumbnailURL)
}

func TestUploadService_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		data     []byte
		target   error
	}{
		{name: "too large", maxBytes: 10, data: bytes.Repeat([]byte("a"), 11), target: models.ErrFileTooLarge},
		{name: "plain text", maxBytes: 1024, data: []byte("just some notes"), target: models.ErrUnsupportedType},
		{name: "executable script", maxBytes: 1024, data: []byte("#!/bin/sh\necho hi\n"), target: models.ErrUnsupportedType},
		{name: "empty", maxBytes: 1024, data: nil, target: models.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, dir := newTestUploadService(t, tt.maxBytes)

			_, err := service.Upload(context.Background(), bytes.NewReader(tt.data), "file")
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}
