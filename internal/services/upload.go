package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"asb-storefront/internal/models"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ThumbnailWidth  = 300
	ThumbnailHeight = 300
)

// thumbnailFormats are the sniffed types that get a thumbnail
var thumbnailFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
}

// UploadOptions limits what the upload service accepts
type UploadOptions struct {
	MaxBytes     int64
	AllowedTypes []string
}

// UploadService validates uploaded files and writes them to storage
type UploadService struct {
	storage StorageService
	options UploadOptions
	now     func() time.Time
	logger  logrus.FieldLogger
}

// NewUploadService creates a new upload service
func NewUploadService(storage StorageService, options UploadOptions, logger logrus.FieldLogger) *UploadService {
	return &UploadService{
		storage: storage,
		options: options,
		now:     time.Now,
		logger:  logger.WithField("component", "upload"),
	}
}

// MaxBytes returns the largest accepted file size
func (s *UploadService) MaxBytes() int64 {
	return s.options.MaxBytes
}

// Upload checks the size and sniffed type of the file, stores it and, for
// raster images, a thumbnail next to it
func (s *UploadService) Upload(ctx context.Context, reader io.Reader, originalName string) (*models.UploadedFile, error) {
	data, err := io.ReadAll(io.LimitReader(reader, s.options.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.options.MaxBytes {
		return nil, fmt.Errorf("limit is %d bytes: %w", s.options.MaxBytes, models.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file: %w", models.ErrInvalidInput)
	}

	mtype := mimetype.Detect(data)
	if !s.allowed(mtype) {
		return nil, fmt.Errorf("%s: %w", mtype.String(), models.ErrUnsupportedType)
	}
	contentType := baseType(mtype.String())

	id := uuid.NewString()
	now := s.now().UTC()
	key := path.Join(now.Format("2006/01/02"), id+mtype.Extension())

	url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), contentType, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	file := &models.UploadedFile{
		ID:           id,
		Filename:     path.Base(key),
		OriginalName: filepath.Base(originalName),
		MimeType:     contentType,
		Size:         int64(len(data)),
		URL:          url,
		UploadedAt:   now,
	}

	if format, ok := thumbnailFormats[contentType]; ok {
		thumbURL, err := s.uploadThumbnail(ctx, key, data, format, contentType)
		if err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to create thumbnail")
		} else {
			file.ThumbnailURL = thumbURL
		}
	}

	s.logger.WithFields(logrus.Fields{
		"key":       key,
		"mime_type": contentType,
		"size":      file.Size,
	}).Info("File uploaded")

	return file, nil
}

func (s *UploadService) uploadThumbnail(ctx context.Context, key string, data []byte, format imaging.Format, contentType string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Thumbnail(img, ThumbnailWidth, ThumbnailHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	ext := path.Ext(key)
	thumbKey := strings.TrimSuffix(key, ext) + "_thumb" + ext
	return s.storage.Upload(ctx, thumbKey, bytes.NewReader(buf.Bytes()), contentType, int64(buf.Len()))
}

func (s *UploadService) allowed(mtype *mimetype.MIME) bool {
	for _, t := range s.options.AllowedTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

// baseType drops MIME parameters such as charset
func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return strings.TrimSpace(mime[:i])
	}
	return mime
}
