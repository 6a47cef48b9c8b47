package handlers

import (
	"errors"
	"net/http"
	"time"

	licensesvc "github.com/havihaviplants/gnom-backend/internal/services/license"
	"github.com/havihaviplants/gnom-backend/internal/transport/http/dto"
	httperrors "github.com/havihaviplants/gnom-backend/internal/transport/http/errors"
)

type LicenseHandler struct {
	service *licensesvc.Service
}

func NewLicenseHandler(service *licensesvc.Service) *LicenseHandler {
	return &LicenseHandler{service: service}
}

func (h *LicenseHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}

	status, err := h.service.Bootstrap(r.Context(), userID)
	if err != nil {
		handleLicenseError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, licenseStatusDTO(status))
}

func (h *LicenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), userID)
	if err != nil {
		handleLicenseError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, licenseStatusDTO(status))
}

func (h *LicenseHandler) Consume(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}

	consumed, err := h.service.ConsumeOne(r.Context(), userID)
	if err != nil {
		handleLicenseError(w, err)
		return
	}
	if !consumed {
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "NO_TOKENS",
			Message: "no analysis access left",
		})
		return
	}

	status, err := h.service.Status(r.Context(), userID)
	if err != nil {
		handleLicenseError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ConsumeResponse{
		OK:     true,
		Status: licenseStatusDTO(status),
	})
}

func (h *LicenseHandler) decodeUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.service == nil {
		writeInternal(w, "LICENSE_SERVICE_UNAVAILABLE", "license service is unavailable")
		return "", false
	}

	var req dto.LicenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return "", false
	}

	return resolveUserID(req.UserID), true
}

func handleLicenseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, licensesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid license request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "license operation failed")
	}
}

func licenseStatusDTO(status licensesvc.Status) dto.LicenseStatusResponse {
	var until *string
	if status.PassUntil != nil {
		formatted := status.PassUntil.UTC().Format(time.RFC3339)
		until = &formatted
	}

	return dto.LicenseStatusResponse{
		Free:       status.Free,
		Ticket:     status.Tickets,
		PassActive: status.PassActive,
		PassUntil:  until,
	}
}
