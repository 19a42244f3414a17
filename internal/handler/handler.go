package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"poll-be/internal/middleware"
	apperrors "poll-be/pkg/errors"
	"poll-be/pkg/logger"
	"poll-be/pkg/response"
	"poll-be/pkg/validate"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// base carries the helpers shared by every handler
type base struct {
	logger *logger.Logger
}

func (b base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.JSON(w, status, data)
}

func (b base) respondError(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, err, middleware.RequestIDFromContext(r.Context()), b.logger)
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// An empty body decodes as the zero value.
func (b base) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.NewValidationError(validate.Message(err), validate.Details(err))
	}
	return nil
}

// callerID is the authenticated user ID; routes using it sit behind middleware.Auth
func callerID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
