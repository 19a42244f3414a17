package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"poll-be/internal/domain"
	"poll-be/internal/repository"
	"poll-be/internal/service"
	apperrors "poll-be/pkg/errors"
	"poll-be/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth accepts "token-<user>" as the bearer token of <user>
type stubAuth struct{}

func (stubAuth) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, apperrors.NewAuthenticationError("Invalid JWT token")
	}
	userID := token[len(prefix):]
	return &domain.Identity{UserID: userID, Email: userID + "@example.com"}, nil
}

type stubHealth map[string]error

func (s stubHealth) HealthCheck(ctx context.Context) map[string]error { return s }

func newTestRouter(t *testing.T, health HealthChecker) *chi.Mux {
	t.Helper()
	repos := &repository.Repositories{
		Poll: repository.NewMemoryPollRepository(),
		User: repository.NewMemoryUserRepository(),
	}
	cache := service.NewCacheService(nil, nil, 0, 0)
	aggregator := service.NewAggregator(repos.Poll, repos.User, cache, nil)
	recorder := service.NewVoteRecorder(repos.Poll, cache, nil)
	services := &service.Services{
		Auth: stubAuth{},
		Poll: service.NewPollService(repos, recorder, aggregator, nil),
	}
	return NewRouter(RouterConfig{Version: "test"}, services, health, logger.Nop())
}

func doRequest(t *testing.T, r http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer token-"+user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	body := decode(t, rec)
	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok, rec.Body.String())
	return errBody["type"].(string), errBody["message"].(string)
}

func register(t *testing.T, r http.Handler, user string) {
	t.Helper()
	rec := doRequest(t, r, http.MethodPut, "/api/v1/users/me", user, map[string]string{
		"fullName": user + " full",
		"userName": user,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func createPoll(t *testing.T, r http.Handler, user string, body map[string]interface{}) string {
	t.Helper()
	rec := doRequest(t, r, http.MethodPost, "/api/v1/polls", user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestRouter_RequiresAuth(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/polls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errType, _ := errorOf(t, rec)
	assert.Equal(t, "authentication", errType)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/nowhere", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PollLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, u := range []string{"alice", "bob"} {
		register(t, r, u)
	}

	id := createPoll(t, r, "alice", map[string]interface{}{
		"question": "Best language?",
		"type":     "single-choice",
		"options":  []string{"Go", "Rust"},
	})

	// vote
	rec := doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/vote", "bob", map[string]interface{}{"optionIndex": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode(t, rec)
	assert.Equal(t, true, view["userHasVoted"])
	options := view["options"].([]interface{})
	assert.Equal(t, float64(1), options[0].(map[string]interface{})["votes"])
	assert.Equal(t, "alice full", view["creator"].(map[string]interface{})["fullName"])

	// duplicate vote
	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/vote", "bob", map[string]interface{}{"optionIndex": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errType, msg := errorOf(t, rec)
	assert.Equal(t, "duplicate_vote", errType)
	assert.Equal(t, "User has already voted on this poll", msg)

	// results are public
	rec = doRequest(t, r, http.MethodGet, "/api/v1/polls/"+id+"/results", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["totalVotes"])

	// close by non-creator
	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/close", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/close", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	closed := decode(t, rec)
	assert.Equal(t, "Poll closed successfully", closed["message"])
	assert.Equal(t, true, closed["poll"].(map[string]interface{})["closed"])

	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/vote", "alice", map[string]interface{}{"optionIndex": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errType, _ = errorOf(t, rec)
	assert.Equal(t, "poll_closed", errType)

	// bookmark toggle
	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/bookmark", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bm := decode(t, rec)
	assert.Equal(t, "Poll bookmarked successfully", bm["message"])
	assert.Equal(t, true, bm["bookmarked"])

	rec = doRequest(t, r, http.MethodGet, "/api/v1/polls/bookmarked", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["bookmarkedPolls"], 1)

	// delete
	rec = doRequest(t, r, http.MethodDelete, "/api/v1/polls/"+id, "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, r, http.MethodDelete, "/api/v1/polls/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Poll deleted successfully", decode(t, rec)["message"])

	rec = doRequest(t, r, http.MethodGet, "/api/v1/polls/"+id, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/users/me", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Empty(t, me["bookmarkedPolls"])
	assert.Equal(t, float64(0), me["totalPollVotes"])
}

func TestRouter_CreateValidation(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name        string
		body        interface{}
		wantStatus  int
		wantMessage string
	}{
		{"missing question", map[string]interface{}{"type": "yes/no"}, http.StatusBadRequest, "question is required"},
		{"blank question", map[string]interface{}{"question": "   ", "type": "yes/no"}, http.StatusBadRequest, "question is required"},
		{"missing type", map[string]interface{}{"question": "Q?"}, http.StatusBadRequest, "type is required"},
		{"unknown type", map[string]interface{}{"question": "Q?", "type": "ranked"}, http.StatusBadRequest, "Invalid poll type"},
		{"one option", map[string]interface{}{"question": "Q?", "type": "single-choice", "options": []string{"a"}}, http.StatusBadRequest, "Single-choice poll must have at least two options."},
		{"image urls", map[string]interface{}{"question": "Q?", "type": "image-based", "options": []string{"https://x/1.png"}}, http.StatusBadRequest, "Image-based poll must have at least two image URLs."},
		{"foreign creator", map[string]interface{}{"question": "Q?", "type": "yes/no", "creatorId": "mallory"}, http.StatusForbidden, "creatorId must match the authenticated user"},
		{"yes-no alias", map[string]interface{}{"question": "Q?", "type": "yes-no"}, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, http.MethodPost, "/api/v1/polls", "alice", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantMessage != "" {
				_, msg := errorOf(t, rec)
				assert.Equal(t, tt.wantMessage, msg)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer token-alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ListAndPaging(t *testing.T) {
	r := newTestRouter(t, nil)
	register(t, r, "alice")
	for i := 0; i < 3; i++ {
		createPoll(t, r, "alice", map[string]interface{}{"question": "Rate me", "type": "rating"})
	}
	createPoll(t, r, "alice", map[string]interface{}{"question": "Thoughts?", "type": "open-ended"})

	rec := doRequest(t, r, http.MethodGet, "/api/v1/polls?page=1&limit=2", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.Len(t, page["polls"], 2)
	assert.Equal(t, float64(4), page["totalPolls"])
	assert.Equal(t, float64(2), page["totalPages"])
	stats := page["stats"].([]interface{})
	require.Len(t, stats, 5)
	assert.Equal(t, "rating", stats[0].(map[string]interface{})["type"])

	rec = doRequest(t, r, http.MethodGet, "/api/v1/polls?type=open-ended", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["totalPolls"])

	for _, q := range []string{"page=0", "limit=abc", "type=bogus"} {
		rec = doRequest(t, r, http.MethodGet, "/api/v1/polls?"+q, "alice", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/polls/voted", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["totalVotedPolls"])
}

func TestRouter_PageOutOfRange(t *testing.T) {
	r := newTestRouter(t, nil)
	register(t, r, "alice")
	createPoll(t, r, "alice", map[string]interface{}{"question": "Rate me", "type": "rating"})

	tests := []struct {
		name string
		path string
	}{
		{"max int page", "/api/v1/polls?page=9223372036854775807"},
		{"overflowing offset", "/api/v1/polls?page=100000000000000000&limit=100"},
		{"voted max int page", "/api/v1/polls/voted?page=9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, http.MethodGet, tt.path, "alice", nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			errType, msg := errorOf(t, rec)
			assert.Equal(t, "validation", errType)
			assert.Equal(t, "page is out of range", msg)
		})
	}

	rec := doRequest(t, r, http.MethodGet, "/api/v1/polls?page=922337203685477581", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode(t, rec)["polls"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := doRequest(t, r, http.MethodPatch, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "method_not_allowed", errBody["type"])
	assert.Equal(t, "Method not allowed", errBody["message"])
	assert.NotEmpty(t, errBody["timestamp"])
	assert.NotEmpty(t, errBody["request_id"])
}

func TestRouter_OpenEndedVote(t *testing.T) {
	r := newTestRouter(t, nil)
	register(t, r, "alice")
	register(t, r, "bob")
	id := createPoll(t, r, "alice", map[string]interface{}{"question": "Ideas?", "type": "open-ended"})

	rec := doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/vote", "bob", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, msg := errorOf(t, rec)
	assert.Equal(t, "Response text is required for open-ended polls.", msg)

	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/vote", "bob", map[string]interface{}{"responseText": "Pizza Fridays", "voterId": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	responses := decode(t, rec)["responses"].([]interface{})
	require.Len(t, responses, 1)
	first := responses[0].(map[string]interface{})
	assert.Equal(t, "Pizza Fridays", first["responseText"])
	assert.Equal(t, "bob", first["voter"].(map[string]interface{})["userName"])

	rec = doRequest(t, r, http.MethodPost, "/api/v1/polls/"+id+"/vote", "alice", map[string]interface{}{"responseText": "x", "voterId": "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_UserProfile(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/users/me", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodPut, "/api/v1/users/me", "alice", map[string]string{"fullName": "Alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPut, "/api/v1/users/me", "alice", map[string]string{"fullName": "Alice", "userName": "alice", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	register(t, r, "alice")
	rec = doRequest(t, r, http.MethodGet, "/api/v1/users/me", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "alice", me["id"])
	assert.Equal(t, "alice@example.com", me["email"])
	assert.Equal(t, float64(0), me["totalPollsCreated"])
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := newTestRouter(t, stubHealth{"store": nil})
		rec := doRequest(t, r, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "test", body["version"])
	})

	t.Run("degraded", func(t *testing.T) {
		r := newTestRouter(t, stubHealth{"store": nil, "redis": errors.New("down")})
		rec := doRequest(t, r, http.MethodGet, "/api/v1/health", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "unhealthy", body["components"].(map[string]interface{})["redis"])
	})
}
