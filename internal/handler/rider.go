package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/service"
	"github.com/bodacredit/loan-engine/pkg/response"
)

type RiderHandler struct {
	riders    *service.RiderService
	validator *validator.Validate
}

func NewRiderHandler(riders *service.RiderService) *RiderHandler {
	return &RiderHandler{
		riders:    riders,
		validator: validator.New(),
	}
}

// CreateRider handles POST /riders
func (h *RiderHandler) CreateRider(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateRiderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	rider, err := h.riders.CreateRider(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, rider)
}

// GetRider handles GET /riders/{riderId}
func (h *RiderHandler) GetRider(w http.ResponseWriter, r *http.Request) {
	riderID, err := pathID(r, "riderId")
	if err != nil {
		response.BadRequest(w, "invalid rider id", err)
		return
	}

	rider, err := h.riders.GetRiderByID(r.Context(), riderID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, rider)
}

// ListRiders handles GET /riders; ?q= switches to search
func (h *RiderHandler) ListRiders(w http.ResponseWriter, r *http.Request) {
	if query := r.URL.Query().Get("q"); query != "" {
		riders, err := h.riders.SearchRiders(r.Context(), query)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		response.Success(w, riders)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	riders, err := h.riders.ListRiders(r.Context(), limit, offset)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, riders)
}

// UpdateRider handles PATCH /riders/{riderId}
func (h *RiderHandler) UpdateRider(w http.ResponseWriter, r *http.Request) {
	riderID, err := pathID(r, "riderId")
	if err != nil {
		response.BadRequest(w, "invalid rider id", err)
		return
	}

	var request domain.UpdateRiderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	rider, err := h.riders.UpdateRider(r.Context(), riderID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, rider)
}

// UpdateRiderStatus handles PATCH /riders/{riderId}/status
func (h *RiderHandler) UpdateRiderStatus(w http.ResponseWriter, r *http.Request) {
	riderID, err := pathID(r, "riderId")
	if err != nil {
		response.BadRequest(w, "invalid rider id", err)
		return
	}

	var request domain.UpdateRiderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	rider, err := h.riders.UpdateRiderStatus(r.Context(), riderID, request.Status)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, rider)
}
