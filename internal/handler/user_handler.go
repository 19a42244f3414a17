package handler

import (
	"net/http"
	"strings"

	"poll-be/internal/domain"
	"poll-be/internal/middleware"
	"poll-be/internal/service"
	"poll-be/pkg/logger"
)

type UserHandler struct {
	base
	polls *service.PollService
}

func NewUserHandler(polls *service.PollService, logger *logger.Logger) *UserHandler {
	return &UserHandler{base: base{logger: logger}, polls: polls}
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	info, err := h.polls.UserInfo(r.Context(), callerID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, info)
}

// UpdateMe handles PUT /api/v1/users/me. It creates the caller's profile on
// first use and keeps the bookmark set afterwards.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
			email = identity.Email
		}
	}

	user := &domain.User{
		ID:              callerID(r),
		FullName:        strings.TrimSpace(req.FullName),
		UserName:        strings.TrimSpace(req.UserName),
		Email:           email,
		ProfileImageURL: strings.TrimSpace(req.ProfileImageURL),
	}
	if err := h.polls.RegisterUser(r.Context(), user); err != nil {
		h.respondError(w, r, err)
		return
	}

	info, err := h.polls.UserInfo(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, info)
}
