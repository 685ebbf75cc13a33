package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/quizdeck/internal/common"
)

// Response messages. The wording of the login and registration failures is
// what existing clients match on.
const (
	msgEmailRegistered    = "Email already registered"
	msgBadCredentials     = "Incorrect email or password"
	msgNotAuthenticated   = "Could not validate credentials"
	msgForbidden          = "Operation not permitted"
	msgUserNotFound       = "User not found"
	msgNotFound           = "Not found"
	msgLastAdmin          = "Cannot remove the last active admin"
	msgInternal           = "Internal Server Error"
	msgInvalidRequestBody = "Invalid request body"
)

type errorMessage struct {
	Msg string `json:"msg"`
}

// errorResponse is {"detail":[{"msg":"..."}]}.
type errorResponse struct {
	Detail []errorMessage `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Detail: []errorMessage{{Msg: msg}}})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

// RespondGuardError renders access guard rejections: 401 with a Bearer
// challenge, 403, or 500 when the check itself failed.
func RespondGuardError(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		writeUnauthorized(w, msgNotAuthenticated)
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, msgForbidden)
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// respondServiceError maps service errors to responses. It reports whether
// err was an expected outcome rather than a failure worth logging.
func respondServiceError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, common.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, msgEmailRegistered)
	case errors.Is(err, common.ErrInvalidCredentials):
		writeUnauthorized(w, msgBadCredentials)
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, common.ErrLastAdmin):
		writeError(w, http.StatusConflict, msgLastAdmin)
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrInvalidToken):
		writeUnauthorized(w, msgNotAuthenticated)
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
		return false
	}
	return true
}
