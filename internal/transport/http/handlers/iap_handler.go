package handlers

import (
	"errors"
	"net/http"

	iapsvc "github.com/havihaviplants/gnom-backend/internal/services/iap"
	"github.com/havihaviplants/gnom-backend/internal/transport/http/dto"
	httperrors "github.com/havihaviplants/gnom-backend/internal/transport/http/errors"
)

type IAPHandler struct {
	service *iapsvc.Service
}

func NewIAPHandler(service *iapsvc.Service) *IAPHandler {
	return &IAPHandler{service: service}
}

func (h *IAPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "IAP_SERVICE_UNAVAILABLE", "iap service is unavailable")
		return
	}

	var req dto.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	token := req.PurchaseToken
	if token == "" {
		token = req.TransactionReceipt
	}

	result, err := h.service.Verify(r.Context(), iapsvc.VerifyInput{
		UserID:    resolveUserID(req.UserID),
		ProductID: req.ProductID,
		Token:     token,
	})
	if err != nil {
		switch {
		case errors.Is(err, iapsvc.ErrMissingToken):
			httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
				Code:    "RECEIPT_REQUIRED",
				Message: "purchase token or receipt is required",
			})
		case errors.Is(err, iapsvc.ErrUnknownProduct):
			writeBadRequest(w, "UNKNOWN_PRODUCT", "unknown product id")
		case errors.Is(err, iapsvc.ErrReceiptUsed):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "RECEIPT_ALREADY_USED",
				Message: "this receipt was already redeemed",
			})
		case errors.Is(err, iapsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid verify payload")
		default:
			writeInternal(w, "INTERNAL_ERROR", "purchase verification failed")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.VerifyResponse{
		OK:    true,
		Grant: string(result.Grant),
	})
}
