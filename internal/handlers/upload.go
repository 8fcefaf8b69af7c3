package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"asb-storefront/internal/models"
	"asb-storefront/internal/services"

	"github.com/sirupsen/logrus"
)

// multipartOverhead leaves room for the multipart framing around the file
const multipartOverhead = 1 << 20

// UploadHandler accepts image and document uploads from the dashboard
type UploadHandler struct {
	uploads *services.UploadService
	logger  logrus.FieldLogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *services.UploadService, logger logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		logger:  logger.WithField("component", "upload_handler"),
	}
}

// Upload stores the multipart field "file"
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes()+multipartOverhead)

	if err := r.ParseMultipartForm(h.uploads.MaxBytes() + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, h.logger, models.ErrFileTooLarge)
			return
		}
		writeError(w, r, h.logger, fmt.Errorf("expected a multipart form: %w", models.ErrInvalidInput))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("missing file field: %w", models.ErrInvalidInput))
		return
	}
	defer file.Close()

	uploaded, err := h.uploads.Upload(r.Context(), file, header.Filename)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploaded)
}
