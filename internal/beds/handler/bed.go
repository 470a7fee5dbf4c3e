package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wardq/internal/beds/service"
	httputil "wardq/pkg/http"
	"wardq/pkg/logger"
	"wardq/pkg/model"
)

type BedHandler struct {
	service service.BedService
	log     *logger.Logger
}

func NewBedHandler(service service.BedService, log *logger.Logger) *BedHandler {
	return &BedHandler{
		service: service,
		log:     log,
	}
}

func (h *BedHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var bed model.Bed
	if err := json.NewDecoder(r.Body).Decode(&bed); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &bed); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, bed); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BedHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bed, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bed); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BedHandler) GetByFacility(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	facilityID := query.Get("facility_id")
	category := query.Get("category")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByFacility", "error", writeErr)
		}
		return
	}

	beds, total, err := h.service.GetByFacility(r.Context(), facilityID, category, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByFacility", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, beds, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByFacility", "error", err)
	}
}

func (h *BedHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.BedUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BedHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BedHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facilityID := r.URL.Query().Get("facility_id")

	availability, err := h.service.Availability(r.Context(), facilityID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "error", err)
	}
}

func (h *BedHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/beds", h.Create)
	router.GET("/api/v1/beds", h.GetByFacility)
	router.GET("/api/v1/beds/availability", h.Availability)
	router.GET("/api/v1/beds/id/:id", h.GetByID)
	router.PATCH("/api/v1/beds/id/:id", h.Update)
	router.DELETE("/api/v1/beds/id/:id", h.Delete)
}
