package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	wardqhttp "wardq/pkg/http"
	"wardq/pkg/logger"
)

// HealthHandler serves liveness and readiness probes. Readiness pings the
// Mongo deployment so a service losing its store is drained from rotation.
type HealthHandler struct {
	mongo *mongo.Client
	log   *logger.Logger
}

func NewHealthHandler(mongoClient *mongo.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		mongo: mongoClient,
		log:   log.With("handler", "health"),
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/health", h.Live)
	router.HandlerFunc(http.MethodGet, "/ready", h.Ready)
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	_ = wardqhttp.WriteSuccess(w, map[string]string{"status": "alive"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.log.Error("readiness probe failed", "error", err)
		_ = wardqhttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "mongodb unreachable",
		})
		return
	}
	_ = wardqhttp.WriteSuccess(w, map[string]string{"status": "ready"})
}
