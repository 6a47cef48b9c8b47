package handlers

import (
	"errors"
	"net/http"

	analyzesvc "github.com/havihaviplants/gnom-backend/internal/services/analyze"
	"github.com/havihaviplants/gnom-backend/internal/transport/http/dto"
	httperrors "github.com/havihaviplants/gnom-backend/internal/transport/http/errors"
)

type AnalyzeHandler struct {
	service *analyzesvc.Service
}

func NewAnalyzeHandler(service *analyzesvc.Service) *AnalyzeHandler {
	return &AnalyzeHandler{service: service}
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ANALYZE_SERVICE_UNAVAILABLE", "analyze service is unavailable")
		return
	}

	var req dto.AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.Analyze(r.Context(), resolveUserID(req.UserID), req.Message, req.Relationship)
	if err != nil {
		switch {
		case errors.Is(err, analyzesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "message is required")
		case errors.Is(err, analyzesvc.ErrDailyLimit):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.APIError{
				Code:    "DAILY_LIMIT",
				Message: "하루 감정 분석 제한을 초과했습니다.",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "analysis failed")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AnalyzeResponse{
		Interpretation: result.Interpretation,
		Insight:        result.Insight,
		Tags:           result.Tags,
		Emojis:         result.Emojis,
	})
}

func (h *AnalyzeHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ANALYZE_SERVICE_UNAVAILABLE", "analyze service is unavailable")
		return
	}

	var req dto.UnlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.Unlock(r.Context(), resolveUserID(req.UserID)); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to unlock daily limit")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnlockResponse{
		Status:  "unlocked",
		Message: "오늘 제한이 해제되었습니다.",
	})
}
