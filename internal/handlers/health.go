package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db          Pinger
	database    string
	storageInfo map[string]interface{}
	logger      logrus.FieldLogger
}

// NewHealthHandler creates a new health handler. database names the document
// store in use.
func NewHealthHandler(db Pinger, database string, storageInfo map[string]interface{}, logger logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		database:    database,
		storageInfo: storageInfo,
		logger:      logger.WithField("component", "health"),
	}
}

// Health pings the document store
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":   "ok",
		"service":  "asb-storefront",
		"database": h.database,
		"storage":  h.storageInfo,
	}

	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		body["status"] = "degraded"
		body["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, body)
}
