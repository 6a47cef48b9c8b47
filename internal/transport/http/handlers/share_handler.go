package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	rewardsvc "github.com/havihaviplants/gnom-backend/internal/services/reward"
	"github.com/havihaviplants/gnom-backend/internal/transport/http/dto"
	httperrors "github.com/havihaviplants/gnom-backend/internal/transport/http/errors"
)

type ShareHandler struct {
	service *rewardsvc.Service
}

func NewShareHandler(service *rewardsvc.Service) *ShareHandler {
	return &ShareHandler{service: service}
}

func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SHARE_SERVICE_UNAVAILABLE", "share service is unavailable")
		return
	}

	var req dto.ShareCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.CreateShare(r.Context(), resolveUserID(req.UserID), req.Title, req.Summary)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to create share")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ShareCreateResponse{
		ShareID:  result.ShareID,
		ShareURL: result.ShareURL,
		StoreURL: result.StoreURL,
	})
}

func (h *ShareHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SHARE_SERVICE_UNAVAILABLE", "share service is unavailable")
		return
	}

	shareID := chi.URLParam(r, "shareID")
	record, err := h.service.GetShare(r.Context(), shareID)
	if err != nil {
		switch {
		case errors.Is(err, rewardsvc.ErrInvalidShare), errors.Is(err, rewardsvc.ErrValidation):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "INVALID_SHARE_ID",
				Message: "share not found or expired",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load share")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ShareGetResponse{
		UserID:  record.UserID,
		Title:   record.Title,
		Summary: record.Summary,
	})
}

func (h *ShareHandler) Claim(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SHARE_SERVICE_UNAVAILABLE", "share service is unavailable")
		return
	}

	var req dto.ShareClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	err := h.service.Claim(r.Context(), resolveUserID(req.UserID), req.ShareID, req.Shared)
	if err != nil {
		switch {
		case errors.Is(err, rewardsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "share_id is required")
		case errors.Is(err, rewardsvc.ErrInvalidShare):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "INVALID_SHARE_ID",
				Message: "share not found or expired",
			})
		case errors.Is(err, rewardsvc.ErrNotConfirmed):
			httperrors.Write(w, http.StatusPreconditionFailed, httperrors.APIError{
				Code:    "SHARE_NOT_CONFIRMED",
				Message: "share action was not confirmed",
			})
		case errors.Is(err, rewardsvc.ErrAlreadyClaimed):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "ALREADY_CLAIMED",
				Message: "this share was already claimed",
			})
		case errors.Is(err, rewardsvc.ErrDailyLimit):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.APIError{
				Code:    "DAILY_SHARE_LIMIT",
				Message: "daily share reward limit reached",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to claim share reward")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ShareClaimResponse{OK: true})
}
