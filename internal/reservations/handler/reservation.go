package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wardq/internal/reservations/service"
	apperrors "wardq/pkg/errors"
	httputil "wardq/pkg/http"
	"wardq/pkg/logger"
	"wardq/pkg/model"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

// createResponse pairs the stored reservation with its opaque claim token.
// The token is returned exactly once, at creation.
type createResponse struct {
	Reservation *model.Reservation `json:"reservation"`
	ClaimToken  string             `json:"claim_token"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "Create", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	var reservation model.Reservation
	if err := json.NewDecoder(r.Body).Decode(&reservation); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}
	reservation.RequesterID = requesterID

	claim, err := h.service.Create(r.Context(), &reservation)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, createResponse{Reservation: &reservation, ClaimToken: claim}); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "Confirm", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	reservation, err := h.service.Confirm(r.Context(), ps.ByName("id"), requesterID)
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "error", err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "Cancel", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	reservation, err := h.service.Cancel(r.Context(), ps.ByName("id"), requesterID)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// ListMine returns the calling requester's reservations.
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := httputil.RequesterID(r)
	if requesterID == "" {
		h.writeError(w, "ListMine", apperrors.Unauthorized("X-Requester-ID header is required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	reservations, total, err := h.service.ListByRequester(r.Context(), requesterID, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "error", err)
	}
}

func (h *ReservationHandler) ListByFacility(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	facilityID := query.Get("facility_id")
	state := query.Get("state")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByFacility", err)
		return
	}

	reservations, total, err := h.service.ListByFacility(r.Context(), facilityID, state, limit, offset)
	if err != nil {
		h.writeError(w, "ListByFacility", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByFacility", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.ListMine)
	router.GET("/api/v1/reservations/facility", h.ListByFacility)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.POST("/api/v1/reservations/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/reservations/id/:id/cancel", h.Cancel)
}
