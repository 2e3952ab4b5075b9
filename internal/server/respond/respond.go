// Package respond writes JSON responses and maps service errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	identityservice "webstarter/backend/internal/identity/service"
	settingsservice "webstarter/backend/internal/settings/service"
	"webstarter/backend/internal/whitelist"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSON writes data as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes an ErrorBody.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: code, Message: message})
}

// Status returns the HTTP status, error code, and user-facing message for err.
// Unknown errors map to 500 with a generic message.
func Status(err error) (status int, body ErrorBody) {
	var ve *identityservice.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorBody{Error: "VALIDATION_ERROR", Message: ve.Message, Field: ve.Field}
	case errors.Is(err, whitelist.ErrNotWhitelisted):
		return http.StatusForbidden, ErrorBody{Error: "FORBIDDEN", Message: whitelist.RejectionMessage()}
	case errors.Is(err, identityservice.ErrEmailAlreadyRegistered):
		return http.StatusUnprocessableEntity, ErrorBody{Error: "USER_ALREADY_EXISTS", Message: "User already exists"}
	case errors.Is(err, identityservice.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Error: "INVALID_EMAIL_OR_PASSWORD", Message: "Invalid email or password"}
	case errors.Is(err, identityservice.ErrInvalidSession):
		return http.StatusUnauthorized, ErrorBody{Error: "Unauthorized", Message: "You must be logged in to access this endpoint"}
	case errors.Is(err, settingsservice.ErrInvalidName):
		return http.StatusBadRequest, ErrorBody{Error: "VALIDATION_ERROR", Message: err.Error(), Field: "name"}
	case errors.Is(err, settingsservice.ErrUserNotFound):
		return http.StatusNotFound, ErrorBody{Error: "NOT_FOUND", Message: "User not found"}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	}
}

// ServiceError writes the response for err. 5xx errors are logged with the underlying cause.
func ServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, body := Status(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	JSON(w, status, body)
}

// DecodeJSON reads a JSON body of at most 1 MiB into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}
