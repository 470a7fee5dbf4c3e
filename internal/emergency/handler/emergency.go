package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wardq/internal/emergency/service"
	apperrors "wardq/pkg/errors"
	httputil "wardq/pkg/http"
	"wardq/pkg/logger"
	"wardq/pkg/model"
)

type EmergencyHandler struct {
	service service.EmergencyService
	log     *logger.Logger
}

func NewEmergencyHandler(service service.EmergencyService, log *logger.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		service: service,
		log:     log,
	}
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *EmergencyHandler) Admit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "Admit", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	var admission model.EmergencyAdmission
	if err := json.NewDecoder(r.Body).Decode(&admission); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Admit", "error", writeErr)
		}
		return
	}
	admission.RequesterID = requesterID

	if err := h.service.Admit(r.Context(), &admission); err != nil {
		h.writeError(w, "Admit", err)
		return
	}

	if err := httputil.WriteCreated(w, admission); err != nil {
		h.log.Error("failed to write created response", "handler", "Admit", "error", err)
	}
}

func (h *EmergencyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	admission, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, admission); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *EmergencyHandler) ListByPriority(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facilityID := r.URL.Query().Get("facility_id")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByPriority", err)
		return
	}

	admissions, total, err := h.service.ListByPriority(r.Context(), facilityID, limit, offset)
	if err != nil {
		h.writeError(w, "ListByPriority", err)
		return
	}

	if err := httputil.WritePaginated(w, admissions, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByPriority", "error", err)
	}
}

func (h *EmergencyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateStatus", "error", writeErr)
		}
		return
	}

	admission, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, admission); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "error", err)
	}
}

func (h *EmergencyHandler) CheckCapacity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facilityID := r.URL.Query().Get("facility_id")

	availability, err := h.service.CheckCapacity(r.Context(), facilityID)
	if err != nil {
		h.writeError(w, "CheckCapacity", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckCapacity", "error", err)
	}
}

func (h *EmergencyHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *EmergencyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/emergencies", h.Admit)
	router.GET("/api/v1/emergencies", h.ListByPriority)
	router.GET("/api/v1/emergencies/capacity", h.CheckCapacity)
	router.GET("/api/v1/emergencies/id/:id", h.GetByID)
	router.PATCH("/api/v1/emergencies/id/:id/status", h.UpdateStatus)
}
