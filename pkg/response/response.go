package response

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "poll-be/pkg/errors"
	"poll-be/pkg/logger"
)

// JSON writes data as a JSON body with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes err as the standard error envelope. Internal causes are logged
// and never sent to the client.
func Error(w http.ResponseWriter, err error, requestID string, log *logger.Logger) {
	appErr := apperrors.As(err)

	if log != nil {
		entry := log.WithFields(map[string]interface{}{
			"error_type":  appErr.Type,
			"status_code": appErr.StatusCode,
			"request_id":  requestID,
		})
		if appErr.StatusCode >= http.StatusInternalServerError {
			entry.WithError(err).Error(appErr.Message)
		} else {
			entry.Debug(appErr.Message)
		}
	}

	body := apperrors.ErrorResponse{Success: false}
	body.Error.Type = appErr.Type
	body.Error.Message = appErr.Message
	body.Error.Details = appErr.Details
	body.Error.RequestID = requestID
	body.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	JSON(w, appErr.StatusCode, body)
}
