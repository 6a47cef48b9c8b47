package handlers

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/havihaviplants/gnom-backend/internal/transport/http/errors"
)

// Identity is caller-supplied and unauthenticated. Blank falls back to the
// shared anonymous bucket, matching the app client before login shipped.
const anonymousUserID = "anonymous"

func resolveUserID(userID string) string {
	if userID == "" {
		return anonymousUserID
	}
	return userID
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
