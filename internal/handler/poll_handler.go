package handler

import (
	"net/http"
	"strings"

	"poll-be/internal/domain"
	"poll-be/internal/service"
	apperrors "poll-be/pkg/errors"
	"poll-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type PollHandler struct {
	base
	polls *service.PollService
}

func NewPollHandler(polls *service.PollService, logger *logger.Logger) *PollHandler {
	return &PollHandler{base: base{logger: logger}, polls: polls}
}

// Create handles POST /api/v1/polls
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePollRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	view, err := h.polls.Create(r.Context(), callerID(r), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, view)
}

// List handles GET /api/v1/polls?type=&creatorId=&page=&limit=
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := domain.ParsePageRequest(q.Get("page"), q.Get("limit"))
	if err != nil {
		h.respondError(w, r, toValidationError(err))
		return
	}

	filter := domain.PollFilter{CreatorID: strings.TrimSpace(q.Get("creatorId"))}
	if raw := q.Get("type"); raw != "" {
		pollType, err := domain.ParsePollType(raw)
		if err != nil {
			h.respondError(w, r, toValidationError(err))
			return
		}
		filter.Type = pollType
	}

	result, err := h.polls.List(r.Context(), callerID(r), filter, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// ListVoted handles GET /api/v1/polls/voted
func (h *PollHandler) ListVoted(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := domain.ParsePageRequest(q.Get("page"), q.Get("limit"))
	if err != nil {
		h.respondError(w, r, toValidationError(err))
		return
	}

	result, err := h.polls.ListVoted(r.Context(), callerID(r), page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// ListBookmarked handles GET /api/v1/polls/bookmarked
func (h *PollHandler) ListBookmarked(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.ListBookmarked(r.Context(), callerID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bookmarkedPolls": polls,
	})
}

// Get handles GET /api/v1/polls/{id}
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.polls.Get(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Results handles GET /api/v1/polls/{id}/results
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	tally, err := h.polls.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tally)
}

// Vote handles POST /api/v1/polls/{id}/vote
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req domain.VoteRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	view, err := h.polls.Vote(r.Context(), callerID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Close handles POST /api/v1/polls/{id}/close
func (h *PollHandler) Close(w http.ResponseWriter, r *http.Request) {
	result, err := h.polls.Close(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// Bookmark handles POST /api/v1/polls/{id}/bookmark
func (h *PollHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	result, err := h.polls.ToggleBookmark(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	message := "Poll removed from bookmarks"
	if result.Bookmarked {
		message = "Poll bookmarked successfully"
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":         message,
		"bookmarked":      result.Bookmarked,
		"bookmarkedPolls": result.BookmarkedPolls,
	})
}

// Delete handles DELETE /api/v1/polls/{id}
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.polls.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Poll deleted successfully",
	})
}

// toValidationError turns a domain validation failure into a 400
func toValidationError(err error) error {
	if vErr, ok := err.(*domain.ValidationError); ok {
		return apperrors.NewValidationError(vErr.Message, map[string]interface{}{"field": vErr.Field})
	}
	return err
}
