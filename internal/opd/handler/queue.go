package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wardq/internal/opd/service"
	apperrors "wardq/pkg/errors"
	httputil "wardq/pkg/http"
	"wardq/pkg/logger"
	"wardq/pkg/model"
)

type QueueHandler struct {
	service service.QueueService
	log     *logger.Logger
}

func NewQueueHandler(service service.QueueService, log *logger.Logger) *QueueHandler {
	return &QueueHandler{
		service: service,
		log:     log,
	}
}

func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "Join", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	var entry model.QueueEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Join", "error", writeErr)
		}
		return
	}
	entry.RequesterID = requesterID

	if err := h.service.Join(r.Context(), &entry); err != nil {
		h.writeError(w, "Join", err)
		return
	}

	if err := httputil.WriteCreated(w, entry); err != nil {
		h.log.Error("failed to write created response", "handler", "Join", "error", err)
	}
}

func (h *QueueHandler) Advance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facilityID := r.URL.Query().Get("facility_id")

	result, err := h.service.Advance(r.Context(), facilityID)
	if err != nil {
		h.writeError(w, "Advance", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Advance", "error", err)
	}
}

func (h *QueueHandler) Snapshot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facilityID := r.URL.Query().Get("facility_id")

	snapshot, err := h.service.Snapshot(r.Context(), facilityID)
	if err != nil {
		h.writeError(w, "Snapshot", err)
		return
	}

	if err := httputil.WriteSuccess(w, snapshot); err != nil {
		h.log.Error("failed to write success response", "handler", "Snapshot", "error", err)
	}
}

func (h *QueueHandler) MyPosition(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "MyPosition", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	facilityID := r.URL.Query().Get("facility_id")

	position, err := h.service.MyPosition(r.Context(), facilityID, requesterID)
	if err != nil {
		h.writeError(w, "MyPosition", err)
		return
	}

	if err := httputil.WriteSuccess(w, position); err != nil {
		h.log.Error("failed to write success response", "handler", "MyPosition", "error", err)
	}
}

func (h *QueueHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *QueueHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/queue/join", h.Join)
	router.POST("/api/v1/queue/advance", h.Advance)
	router.GET("/api/v1/queue/snapshot", h.Snapshot)
	router.GET("/api/v1/queue/position", h.MyPosition)
}
