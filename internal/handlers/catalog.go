package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"asb-storefront/internal/models"
	"asb-storefront/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ListResponse is a page of collection documents
type ListResponse struct {
	Items  []map[string]interface{} `json:"items"`
	Total  int                      `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// CatalogHandler exposes the document collections to the storefront and
// the admin dashboard
type CatalogHandler struct {
	catalog *services.CatalogService
	logger  logrus.FieldLogger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService, logger logrus.FieldLogger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger.WithField("component", "catalog_handler"),
	}
}

// List returns a page of a collection, newest first
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, total, err := h.catalog.List(r.Context(), chi.URLParam(r, "collection"), limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// Get returns one document
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.catalog.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Create adds a document to a collection
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, err := h.catalog.Create(r.Context(), chi.URLParam(r, "collection"), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Update replaces the body of a document
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, err := h.catalog.Update(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Delete removes a document
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePurchaseStatus changes the status of a purchase
func (h *CatalogHandler) UpdatePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.PurchaseStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	doc, err := h.catalog.UpdatePurchaseStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, err
	}
	return body, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", name, models.ErrInvalidInput)
	}
	return n, nil
}
